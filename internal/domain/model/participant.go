package model

import (
	"strings"
	"time"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
)

type Participant struct {
	UserID         int64
	Username       string
	Nickname       string
	PhotoFileID    string
	GameModes      string
	Verification   enums.Verification
	Balance        int64
	Warnings       int
	Banned         bool
	ReferralCode   string
	ReferredBy     *int64
	MatchesFound   int
	LastMatchAt    *time.Time
	PhotoObjectKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasProfile reports whether the participant ever submitted a profile that
// has not been cleared since.
func (p Participant) HasProfile() bool {
	return p.Verification != enums.VerificationNone && strings.TrimSpace(p.Nickname) != ""
}

type ProfileDraft struct {
	Nickname    string `json:"nickname,omitempty"`
	PhotoFileID string `json:"photo_file_id,omitempty"`
	GameModes   string `json:"game_modes,omitempty"`
}

type ProfileOverview struct {
	Participant   Participant
	LikesReceived int
	RecentLikes   []IncomingLike
}

type Stats struct {
	Total        int64
	Verified     int64
	Pending      int64
	Banned       int64
	Likes        int64
	TotalBalance int64
}
