package model

import (
	"time"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
)

// Session is the per-participant conversational context. It is created on the
// first flow event and cleared when the participant returns to the menu.
type Session struct {
	UserID     int64          `json:"user_id"`
	Step       enums.FlowStep `json:"step"`
	Draft      ProfileDraft   `json:"draft"`
	Queue      CandidateQueue `json:"queue"`
	LikeTarget int64          `json:"like_target,omitempty"`
	ReplyTo    int64          `json:"reply_to,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func NewSession(userID int64) Session {
	return Session{UserID: userID, Step: enums.FlowStepIdle}
}

func (s Session) IsIdle() bool {
	return (s.Step == "" || s.Step == enums.FlowStepIdle) && s.Queue.Empty() && s.ReplyTo == 0
}

// CandidateQueue holds the candidates still to be shown. Switched is set once
// the queue was refilled from cold candidates after the likers ran out.
type CandidateQueue struct {
	Mode     enums.MatchMode `json:"mode,omitempty"`
	IDs      []int64         `json:"ids,omitempty"`
	Switched bool            `json:"switched,omitempty"`
}

func (q CandidateQueue) Empty() bool {
	return len(q.IDs) == 0
}

func (q CandidateQueue) Head() (int64, bool) {
	if len(q.IDs) == 0 {
		return 0, false
	}
	return q.IDs[0], true
}

// Remove drops every occurrence of id and reports whether anything was removed.
func (q *CandidateQueue) Remove(id int64) bool {
	kept := q.IDs[:0]
	removed := false
	for _, v := range q.IDs {
		if v == id {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	q.IDs = kept
	return removed
}

type CandidateBatch struct {
	Mode       enums.MatchMode
	Candidates []Participant
}

func (b CandidateBatch) IDs() []int64 {
	ids := make([]int64, 0, len(b.Candidates))
	for _, c := range b.Candidates {
		ids = append(ids, c.UserID)
	}
	return ids
}
