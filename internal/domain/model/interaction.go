package model

import "time"

type Interaction struct {
	ID        int64
	ActorID   int64
	TargetID  int64
	Liked     bool
	Message   string
	CreatedAt time.Time
}

type IncomingLike struct {
	ActorID   int64
	Username  string
	Nickname  string
	GameModes string
	Balance   int64
	Message   string
	CreatedAt time.Time
}

type LikeResult struct {
	Interaction      Interaction
	Credited         int64
	Counted          bool
	Mutual           bool
	MatchesFound     int
	ReferralComplete *ReferralCompletion
}
