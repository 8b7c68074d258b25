package dto

import "time"

type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

type StatsResponse struct {
	Total        int64 `json:"total"`
	Verified     int64 `json:"verified"`
	Pending      int64 `json:"pending"`
	Banned       int64 `json:"banned"`
	Likes        int64 `json:"likes"`
	TotalBalance int64 `json:"total_balance"`
}

type ParticipantCard struct {
	UserID       int64      `json:"user_id"`
	Username     string     `json:"username,omitempty"`
	Nickname     string     `json:"nickname,omitempty"`
	GameModes    string     `json:"game_modes,omitempty"`
	Verification string     `json:"verification"`
	Balance      int64      `json:"balance"`
	Warnings     int        `json:"warnings"`
	Banned       bool       `json:"banned"`
	MatchesFound int        `json:"matches_found"`
	ReferralCode string     `json:"referral_code,omitempty"`
	ReferredBy   *int64     `json:"referred_by,omitempty"`
	LastMatchAt  *time.Time `json:"last_match_at,omitempty"`
	PhotoURL     string     `json:"photo_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type LeadersResponse struct {
	Items []ParticipantCard `json:"items"`
}

type VerificationsResponse struct {
	Items []ParticipantCard `json:"items"`
	Total int64             `json:"total"`
}
