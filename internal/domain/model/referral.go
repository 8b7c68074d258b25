package model

import "time"

type Referral struct {
	ID          int64
	InviterID   int64
	InviteeID   int64
	Completed   bool
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type ReferralCompletion struct {
	ReferralID int64
	InviterID  int64
	InviteeID  int64
	Reward     int64
}

type ReferralSummary struct {
	Code      string
	Link      string
	Completed int
	Earned    int64
	Reward    int64
	Required  int
}
