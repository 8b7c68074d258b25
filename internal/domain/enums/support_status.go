package enums

type SupportStatus string

const (
	SupportStatusPending  SupportStatus = "pending"
	SupportStatusAnswered SupportStatus = "answered"
)
