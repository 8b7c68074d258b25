package enums

type Verification string

const (
	VerificationNone     Verification = "none"
	VerificationPending  Verification = "pending"
	VerificationApproved Verification = "approved"
	VerificationRejected Verification = "rejected"
)

func (v Verification) Valid() bool {
	switch v {
	case VerificationNone, VerificationPending, VerificationApproved, VerificationRejected:
		return true
	default:
		return false
	}
}
