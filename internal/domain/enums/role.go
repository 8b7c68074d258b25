package enums

type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleVerifier      Role = "VERIFIER"
	RoleAdminVerifier Role = "ADMIN_VERIFIER"
	RoleUser          Role = "USER"
)
