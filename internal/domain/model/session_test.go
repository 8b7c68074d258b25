package model

import (
	"testing"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
)

func TestCandidateQueueRemove(t *testing.T) {
	q := CandidateQueue{Mode: enums.MatchModeLikers, IDs: []int64{3, 5, 3, 9}}

	if !q.Remove(3) {
		t.Fatalf("expected remove to report true")
	}
	if len(q.IDs) != 2 || q.IDs[0] != 5 || q.IDs[1] != 9 {
		t.Fatalf("unexpected ids after remove: %v", q.IDs)
	}
	if q.Remove(42) {
		t.Fatalf("expected remove of missing id to report false")
	}

	head, ok := q.Head()
	if !ok || head != 5 {
		t.Fatalf("unexpected head: got %d ok=%v want 5", head, ok)
	}
}

func TestSessionIsIdle(t *testing.T) {
	s := NewSession(10)
	if !s.IsIdle() {
		t.Fatalf("fresh session should be idle")
	}

	s.Queue.IDs = []int64{1}
	if s.IsIdle() {
		t.Fatalf("session with queued candidates should not be idle")
	}
}
