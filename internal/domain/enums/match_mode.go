package enums

type MatchMode string

const (
	MatchModeNone   MatchMode = ""
	MatchModeLikers MatchMode = "likers"
	MatchModeCold   MatchMode = "cold"
)
