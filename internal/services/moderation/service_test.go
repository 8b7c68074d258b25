package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
)

type memoryProfiles struct {
	items map[int64]model.Participant
}

func (m *memoryProfiles) Get(_ context.Context, userID int64) (model.Participant, error) {
	p, ok := m.items[userID]
	if !ok {
		return model.Participant{}, pgrepo.ErrParticipantNotFound
	}
	return p, nil
}

func (m *memoryProfiles) SubmitProfile(_ context.Context, userID int64, draft model.ProfileDraft) (model.Participant, error) {
	p, ok := m.items[userID]
	if !ok {
		return model.Participant{}, pgrepo.ErrParticipantNotFound
	}
	p.Nickname = draft.Nickname
	p.PhotoFileID = draft.PhotoFileID
	p.GameModes = draft.GameModes
	p.Verification = enums.VerificationPending
	m.items[userID] = p
	return p, nil
}

func (m *memoryProfiles) SetVerification(_ context.Context, userID int64, status enums.Verification) (model.Participant, error) {
	p, ok := m.items[userID]
	if !ok {
		return model.Participant{}, pgrepo.ErrParticipantNotFound
	}
	p.Verification = status
	m.items[userID] = p
	return p, nil
}

func (m *memoryProfiles) ListPending(_ context.Context, limit int) ([]model.Participant, error) {
	out := make([]model.Participant, 0)
	for _, p := range m.items {
		if p.Verification == enums.VerificationPending && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryProfiles) CountPending(_ context.Context) (int64, error) {
	var n int64
	for _, p := range m.items {
		if p.Verification == enums.VerificationPending {
			n++
		}
	}
	return n, nil
}

type staticRoles map[int64]bool

func (r staticRoles) IsVerifier(userID int64) bool {
	return r[userID]
}

func TestSubmitApproveAndResubmit(t *testing.T) {
	store := &memoryProfiles{items: map[int64]model.Participant{
		1: {UserID: 1, Verification: enums.VerificationNone},
	}}
	svc := NewService(store, staticRoles{100: true}, nil)
	ctx := context.Background()

	draft := model.ProfileDraft{Nickname: " Nova ", PhotoFileID: "photo-1", GameModes: "BedWars"}
	p, err := svc.Submit(ctx, 1, draft)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if p.Verification != enums.VerificationPending || p.Nickname != "Nova" {
		t.Fatalf("unexpected submitted profile: %+v", p)
	}

	decision, err := svc.Approve(ctx, 100, 1)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if decision.Previous != enums.VerificationPending || decision.Participant.Verification != enums.VerificationApproved {
		t.Fatalf("unexpected decision: %+v", decision)
	}

	p, err = svc.Submit(ctx, 1, model.ProfileDraft{Nickname: "Nova2", PhotoFileID: "photo-2", GameModes: "Doors"})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if p.Verification != enums.VerificationPending {
		t.Fatalf("resubmission must reset to pending, got %s", p.Verification)
	}
}

func TestDecisionsRequireVerifier(t *testing.T) {
	store := &memoryProfiles{items: map[int64]model.Participant{
		1: {UserID: 1, Nickname: "Nova", Verification: enums.VerificationPending},
	}}
	svc := NewService(store, staticRoles{100: true}, nil)

	if _, err := svc.Approve(context.Background(), 5, 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Reject(context.Background(), 5, 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if store.items[1].Verification != enums.VerificationPending {
		t.Fatalf("forbidden decision must not change state")
	}
	if _, err := svc.Pending(context.Background(), 5, 5); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for pending list, got %v", err)
	}
}

func TestDecisionOnMissingProfile(t *testing.T) {
	store := &memoryProfiles{items: map[int64]model.Participant{
		2: {UserID: 2, Verification: enums.VerificationNone},
	}}
	svc := NewService(store, staticRoles{100: true}, nil)

	for _, id := range []int64{2, 3} {
		if _, err := svc.Reject(context.Background(), 100, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for user %d, got %v", id, err)
		}
	}
}

func TestNormalizeDraftValidation(t *testing.T) {
	long := make([]rune, maxNicknameLength+1)
	for i := range long {
		long[i] = 'ы'
	}

	tests := []struct {
		name  string
		draft model.ProfileDraft
	}{
		{name: "empty nickname", draft: model.ProfileDraft{Nickname: "  ", PhotoFileID: "p", GameModes: "m"}},
		{name: "long nickname", draft: model.ProfileDraft{Nickname: string(long), PhotoFileID: "p", GameModes: "m"}},
		{name: "no photo", draft: model.ProfileDraft{Nickname: "n", GameModes: "m"}},
		{name: "no modes", draft: model.ProfileDraft{Nickname: "n", PhotoFileID: "p"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NormalizeDraft(tc.draft); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestPendingReturnsTotal(t *testing.T) {
	store := &memoryProfiles{items: map[int64]model.Participant{
		1: {UserID: 1, Nickname: "a", Verification: enums.VerificationPending},
		2: {UserID: 2, Nickname: "b", Verification: enums.VerificationPending},
		3: {UserID: 3, Nickname: "c", Verification: enums.VerificationApproved},
	}}
	svc := NewService(store, staticRoles{100: true}, nil)

	page, err := svc.Pending(context.Background(), 100, 1)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(page.Items) != 1 || page.Total != 2 {
		t.Fatalf("unexpected page: items=%d total=%d", len(page.Items), page.Total)
	}
}
