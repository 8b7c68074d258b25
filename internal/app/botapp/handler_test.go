package botapp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
	tginfra "github.com/ave4ge/findateammatebot/internal/infra/telegram"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
	"github.com/ave4ge/findateammatebot/internal/services/access"
	adminsvc "github.com/ave4ge/findateammatebot/internal/services/admin"
	"github.com/ave4ge/findateammatebot/internal/services/commerce"
	"github.com/ave4ge/findateammatebot/internal/services/ledger"
	"github.com/ave4ge/findateammatebot/internal/services/matching"
	modsvc "github.com/ave4ge/findateammatebot/internal/services/moderation"
	"github.com/ave4ge/findateammatebot/internal/services/participants"
	"github.com/ave4ge/findateammatebot/internal/services/referrals"
	"github.com/ave4ge/findateammatebot/internal/services/sessions"
	"github.com/ave4ge/findateammatebot/internal/services/support"
	"github.com/ave4ge/findateammatebot/internal/ui"
)

const (
	testAdminID    = int64(1000)
	testVerifierID = int64(2000)
	testUserID     = int64(42)
)

func TestStartRegistersAndShowsMenu(t *testing.T) {
	env := newTestEnv()

	err := env.handlers.OnCommand(context.Background(), tginfra.CommandUpdate{
		ChatID: testUserID, UserID: testUserID, Username: "nova", Command: "start",
	})
	if err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	p, ok := env.participants.items[testUserID]
	if !ok || p.Username != "nova" || p.ReferralCode == "" {
		t.Fatalf("participant was not registered: %+v", p)
	}

	sent := env.gateway.sentTo(testUserID)
	if len(sent) != 2 {
		t.Fatalf("unexpected messages: got %d want %d", len(sent), 2)
	}
	if sent[0].Text != ui.MainMenuText || len(sent[0].Inline) != 6 {
		t.Fatalf("unexpected menu message: %+v", sent[0])
	}
	if len(sent[1].Reply) != 1 || sent[1].Reply[0][0] != ui.MenuButton {
		t.Fatalf("expected persistent menu keyboard, got %+v", sent[1])
	}
}

func TestStartWithReferralCodeMentionsThreshold(t *testing.T) {
	env := newTestEnv()
	env.participants.items[7] = model.Participant{UserID: 7, ReferralCode: "invite77"}

	err := env.handlers.OnCommand(context.Background(), tginfra.CommandUpdate{
		ChatID: testUserID, UserID: testUserID, Command: "start", Args: "invite77",
	})
	if err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	if len(env.participants.referrals) != 1 || env.participants.referrals[0] != [2]int64{7, testUserID} {
		t.Fatalf("unexpected referrals: %v", env.participants.referrals)
	}
	sent := env.gateway.sentTo(testUserID)
	if len(sent) != 3 || !strings.Contains(sent[0].Text, "Найдите 2 тиммейтов") {
		t.Fatalf("unexpected messages: %+v", sent)
	}
}

func TestBannedParticipantIsStopped(t *testing.T) {
	env := newTestEnv()
	env.participants.items[testUserID] = model.Participant{UserID: testUserID, ReferralCode: "x", Banned: true}

	err := env.handlers.OnText(context.Background(), tginfra.TextUpdate{
		ChatID: testUserID, UserID: testUserID, Text: "hello",
	})
	if err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	sent := env.gateway.sentTo(testUserID)
	if len(sent) != 1 || sent[0].Text != ui.BannedText {
		t.Fatalf("unexpected messages: %+v", sent)
	}
}

func TestSupportFlow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.handlers.OnCallback(ctx, tginfra.CallbackUpdate{
		CallbackID: "cb1", ChatID: testUserID, UserID: testUserID, Data: "support",
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	session, _ := env.sessions.Load(ctx, testUserID)
	if session.Step != enums.FlowStepWaitingSupport {
		t.Fatalf("unexpected step: got %s want %s", session.Step, enums.FlowStepWaitingSupport)
	}

	if err := env.handlers.OnText(ctx, tginfra.TextUpdate{
		ChatID: testUserID, UserID: testUserID, Text: strings.Repeat("a", 501),
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if last := env.gateway.last(testUserID); last.Text != ui.SupportTooLong(500) {
		t.Fatalf("unexpected reply to long message: %q", last.Text)
	}
	if len(env.support.created) != 0 {
		t.Fatalf("long message must not be stored")
	}

	if err := env.handlers.OnText(ctx, tginfra.TextUpdate{
		ChatID: testUserID, UserID: testUserID, Username: "nova", Text: "help <me>",
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if len(env.support.created) != 1 || env.support.created[0].Text != "help <me>" {
		t.Fatalf("unexpected stored messages: %+v", env.support.created)
	}

	ticket := env.gateway.sentTo(testAdminID)
	if len(ticket) != 1 || !strings.Contains(ticket[0].Text, "help &lt;me&gt;") {
		t.Fatalf("unexpected admin ticket: %+v", ticket)
	}
	if ticket[0].Inline[0][0].Data != "reply:42" {
		t.Fatalf("unexpected reply button: %+v", ticket[0].Inline)
	}

	session, _ = env.sessions.Load(ctx, testUserID)
	if !session.IsIdle() {
		t.Fatalf("session should be cleared after submit: %+v", session)
	}
}

func TestStaffReplyDeliversAnswer(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.support.pending[testUserID] = true

	if err := env.handlers.OnCallback(ctx, tginfra.CallbackUpdate{
		CallbackID: "cb", ChatID: testAdminID, UserID: testAdminID, Data: "reply:42",
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if err := env.handlers.OnText(ctx, tginfra.TextUpdate{
		ChatID: testAdminID, UserID: testAdminID, Text: "fixed",
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	answer := env.gateway.last(testUserID)
	if answer.Text != ui.SupportAnswer("fixed") {
		t.Fatalf("unexpected answer delivered: %q", answer.Text)
	}
	if got := env.gateway.last(testAdminID).Text; got != fmt.Sprintf(ui.ReplySentText, testUserID) {
		t.Fatalf("unexpected confirmation: %q", got)
	}
}

func TestReplyButtonForbiddenForUsers(t *testing.T) {
	env := newTestEnv()

	if err := env.handlers.OnCallback(context.Background(), tginfra.CallbackUpdate{
		CallbackID: "cb", ChatID: testUserID, UserID: testUserID, Data: "reply:5",
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	if got := env.gateway.lastAnswer(); got != ui.ForbiddenText {
		t.Fatalf("unexpected callback answer: %q", got)
	}
}

func TestUnknownCallbackIsStale(t *testing.T) {
	env := newTestEnv()

	if err := env.handlers.OnCallback(context.Background(), tginfra.CallbackUpdate{
		CallbackID: "cb", ChatID: testUserID, UserID: testUserID, Data: "bogus:1",
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	if got := env.gateway.lastAnswer(); got != ui.StaleButtonText {
		t.Fatalf("unexpected callback answer: %q", got)
	}
}

func TestAdminCommandForbiddenForUsers(t *testing.T) {
	env := newTestEnv()

	if err := env.handlers.OnCommand(context.Background(), tginfra.CommandUpdate{
		ChatID: testUserID, UserID: testUserID, Command: "ban", Args: "@someone",
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	if got := env.gateway.last(testUserID).Text; got != ui.ForbiddenText {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestMenuButtonClearsSession(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	session := model.NewSession(testUserID)
	session.Step = enums.FlowStepWaitingNickname
	if err := env.sessions.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	if err := env.handlers.OnText(ctx, tginfra.TextUpdate{
		ChatID: testUserID, UserID: testUserID, Text: ui.MenuButton,
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	loaded, _ := env.sessions.Load(ctx, testUserID)
	if !loaded.IsIdle() {
		t.Fatalf("session should be idle: %+v", loaded)
	}
	if got := env.gateway.last(testUserID).Text; got != ui.MainMenuText {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "no profile", err: &participants.StateError{Verification: enums.VerificationNone}, want: ui.NoProfileText},
		{name: "pending", err: &participants.StateError{Verification: enums.VerificationPending}, want: ui.ProfilePendingText},
		{name: "rejected", err: &participants.StateError{Verification: enums.VerificationRejected}, want: ui.ProfileRejectedText},
		{name: "banned", err: &participants.StateError{Verification: enums.VerificationApproved, Banned: true}, want: ui.BannedText},
		{name: "too fast", err: fmt.Errorf("like: %w", ledger.TooFastError{RetryAfterSec: 7}), want: ui.TooFast(7)},
		{name: "insufficient", err: commerce.InsufficientBalanceError{Price: 1700, Balance: 3}, want: ui.InsufficientBalance(1700)},
		{name: "forbidden", err: modsvc.ErrForbidden, want: ui.ForbiddenText},
		{name: "not found", err: participants.ErrNotFound, want: ui.UserNotFoundText},
		{name: "unknown promo", err: commerce.ErrUnknownPromo, want: ui.StaleButtonText},
		{name: "invalid profile", err: fmt.Errorf("%w: nickname is required", modsvc.ErrValidation), want: ui.ProfileInvalidText},
		{name: "internal", err: errors.New("boom"), want: ui.InternalErrorText},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, expected := describe(tc.err)
			if got != tc.want {
				t.Fatalf("unexpected text: got %q want %q", got, tc.want)
			}
			if expected == (tc.name == "internal") {
				t.Fatalf("unexpected expected flag %v for %s", expected, tc.name)
			}
		})
	}
}

type testEnv struct {
	handlers     tginfra.Handlers
	gateway      *fakeGateway
	participants *fakeParticipantStore
	interactions *fakeInteractionStore
	support      *fakeSupportStore
	sessions     *sessions.MemoryStore
}

func newTestEnv() *testEnv {
	gateway := &fakeGateway{}
	store := &fakeParticipantStore{items: make(map[int64]model.Participant)}
	interactions := &fakeInteractionStore{participants: store}
	supportStore := &fakeSupportStore{pending: make(map[int64]bool)}
	sessionStore := sessions.NewMemoryStore(0)
	roles := access.NewService([]int64{testAdminID}, []int64{testVerifierID})

	ledgerSvc := ledger.NewService(ledger.Dependencies{
		Participants: store,
		Interactions: interactions,
	}, ledger.Config{MatchReward: 5, MatchCooldown: time.Hour})

	h := NewHandler(Deps{
		Gateway:  gateway,
		Sessions: sessionStore,
		Access:   roles,
		Participants: participants.NewService(participants.Dependencies{
			Participants: store,
			Referrals:    store,
		}),
		Moderation: modsvc.NewService(store, roles, nil),
		Matching:   matching.NewService(interactions, store, ledgerSvc, 10, nil),
		Ledger:     ledgerSvc,
		Referrals:  referrals.NewService(nil, nil, referrals.Config{Reward: 12, MatchesRequired: 2}, nil),
		Admin:      adminsvc.NewService(store, roles, adminsvc.Config{MaxWarnings: 3}, nil),
		Support:    support.NewService(supportStore, roles, nil, 500, nil),
	})

	return &testEnv{
		handlers:     h.Handlers(),
		gateway:      gateway,
		participants: store,
		interactions: interactions,
		support:      supportStore,
		sessions:     sessionStore,
	}
}

// approve seeds searchable participants.
func (e *testEnv) approve(ids ...int64) {
	for _, id := range ids {
		e.participants.items[id] = model.Participant{
			UserID:       id,
			Username:     fmt.Sprintf("user%d", id),
			Nickname:     fmt.Sprintf("nick%d", id),
			PhotoFileID:  fmt.Sprintf("photo%d", id),
			GameModes:    "BedWars",
			Verification: enums.VerificationApproved,
			ReferralCode: fmt.Sprintf("code%d", id),
		}
	}
}

func (e *testEnv) press(t *testing.T, userID int64, data string) {
	t.Helper()
	if err := e.handlers.OnCallback(context.Background(), tginfra.CallbackUpdate{
		CallbackID: data, ChatID: userID, UserID: userID, Data: data,
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
}

func (e *testEnv) say(t *testing.T, userID int64, text string) {
	t.Helper()
	if err := e.handlers.OnText(context.Background(), tginfra.TextUpdate{
		ChatID: userID, UserID: userID, Text: text,
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
}

func (e *testEnv) command(t *testing.T, userID int64, command, args string) {
	t.Helper()
	if err := e.handlers.OnCommand(context.Background(), tginfra.CommandUpdate{
		ChatID: userID, UserID: userID, Command: command, Args: args,
	}); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
}

func (e *testEnv) session(t *testing.T, userID int64) model.Session {
	t.Helper()
	session, err := e.sessions.Load(context.Background(), userID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return session
}

type fakeGateway struct {
	mu      sync.Mutex
	sent    []tginfra.OutgoingMessage
	answers []string
}

func (g *fakeGateway) Send(_ context.Context, msg tginfra.OutgoingMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, msg)
	return nil
}

func (g *fakeGateway) AnswerCallback(_ context.Context, _ string, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answers = append(g.answers, text)
	return nil
}

func (g *fakeGateway) sentTo(chatID int64) []tginfra.OutgoingMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]tginfra.OutgoingMessage, 0)
	for _, msg := range g.sent {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}

func (g *fakeGateway) last(chatID int64) tginfra.OutgoingMessage {
	sent := g.sentTo(chatID)
	if len(sent) == 0 {
		return tginfra.OutgoingMessage{}
	}
	return sent[len(sent)-1]
}

func (g *fakeGateway) lastAnswer() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.answers) == 0 {
		return ""
	}
	return g.answers[len(g.answers)-1]
}

type fakeParticipantStore struct {
	items     map[int64]model.Participant
	referrals [][2]int64
}

func (s *fakeParticipantStore) Ensure(_ context.Context, userID int64, username, referralCode string) (model.Participant, bool, error) {
	if p, ok := s.items[userID]; ok {
		if username != "" {
			p.Username = username
			s.items[userID] = p
		}
		return p, false, nil
	}
	p := model.Participant{
		UserID:       userID,
		Username:     username,
		ReferralCode: referralCode,
		Verification: enums.VerificationNone,
	}
	s.items[userID] = p
	return p, true, nil
}

func (s *fakeParticipantStore) Get(_ context.Context, userID int64) (model.Participant, error) {
	p, ok := s.items[userID]
	if !ok {
		return model.Participant{}, pgrepo.ErrParticipantNotFound
	}
	return p, nil
}

func (s *fakeParticipantStore) FindByReferralCode(_ context.Context, code string) (model.Participant, error) {
	for _, p := range s.items {
		if p.ReferralCode == code {
			return p, nil
		}
	}
	return model.Participant{}, pgrepo.ErrParticipantNotFound
}

func (s *fakeParticipantStore) Create(_ context.Context, inviterID, inviteeID int64) (bool, error) {
	for _, r := range s.referrals {
		if r[1] == inviteeID {
			return false, nil
		}
	}
	s.referrals = append(s.referrals, [2]int64{inviterID, inviteeID})
	return true, nil
}

func (s *fakeParticipantStore) FindByUsername(_ context.Context, username string) (model.Participant, error) {
	username = strings.TrimPrefix(username, "@")
	for _, p := range s.items {
		if p.Username == username {
			return p, nil
		}
	}
	return model.Participant{}, pgrepo.ErrParticipantNotFound
}

func (s *fakeParticipantStore) update(userID int64, fn func(p *model.Participant)) (model.Participant, error) {
	p, ok := s.items[userID]
	if !ok {
		return model.Participant{}, pgrepo.ErrParticipantNotFound
	}
	fn(&p)
	s.items[userID] = p
	return p, nil
}

func (s *fakeParticipantStore) SubmitProfile(_ context.Context, userID int64, draft model.ProfileDraft) (model.Participant, error) {
	return s.update(userID, func(p *model.Participant) {
		p.Nickname = draft.Nickname
		p.PhotoFileID = draft.PhotoFileID
		p.GameModes = draft.GameModes
		p.Verification = enums.VerificationPending
	})
}

func (s *fakeParticipantStore) SetVerification(_ context.Context, userID int64, status enums.Verification) (model.Participant, error) {
	return s.update(userID, func(p *model.Participant) { p.Verification = status })
}

func (s *fakeParticipantStore) ListPending(_ context.Context, limit int) ([]model.Participant, error) {
	out := make([]model.Participant, 0)
	for _, id := range s.ids() {
		if p := s.items[id]; p.Verification == enums.VerificationPending && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeParticipantStore) CountPending(ctx context.Context) (int64, error) {
	pending, err := s.ListPending(ctx, len(s.items))
	return int64(len(pending)), err
}

func (s *fakeParticipantStore) AddBalance(_ context.Context, userID int64, delta int64) (int64, error) {
	p, err := s.update(userID, func(p *model.Participant) { p.Balance = max(p.Balance+delta, 0) })
	return p.Balance, err
}

func (s *fakeParticipantStore) ResetBalance(_ context.Context, userID int64) error {
	_, err := s.update(userID, func(p *model.Participant) { p.Balance = 0 })
	return err
}

func (s *fakeParticipantStore) RecordMatch(_ context.Context, userID int64, at time.Time) (int, error) {
	p, err := s.update(userID, func(p *model.Participant) {
		p.MatchesFound++
		p.LastMatchAt = &at
	})
	return p.MatchesFound, err
}

func (s *fakeParticipantStore) AddWarning(_ context.Context, userID int64, maxWarnings int) (int, bool, error) {
	p, err := s.update(userID, func(p *model.Participant) {
		p.Warnings = min(p.Warnings+1, maxWarnings)
		p.Banned = p.Banned || p.Warnings >= maxWarnings
	})
	return p.Warnings, p.Banned, err
}

func (s *fakeParticipantStore) SetBanned(_ context.Context, userID int64, banned bool) error {
	_, err := s.update(userID, func(p *model.Participant) { p.Banned = banned })
	return err
}

func (s *fakeParticipantStore) ClearProfile(_ context.Context, userID int64) error {
	_, err := s.update(userID, func(p *model.Participant) {
		p.Nickname, p.PhotoFileID, p.GameModes = "", "", ""
		p.Verification = enums.VerificationNone
	})
	return err
}

func (s *fakeParticipantStore) List(_ context.Context, limit int) ([]model.Participant, error) {
	out := make([]model.Participant, 0, len(s.items))
	for _, id := range s.ids() {
		if len(out) == limit {
			break
		}
		out = append(out, s.items[id])
	}
	return out, nil
}

func (s *fakeParticipantStore) Count(context.Context) (int64, error) {
	return int64(len(s.items)), nil
}

func (s *fakeParticipantStore) Leaderboard(ctx context.Context, limit int) ([]model.Participant, error) {
	return s.List(ctx, limit)
}

func (s *fakeParticipantStore) Stats(context.Context) (model.Stats, error) {
	return model.Stats{Total: int64(len(s.items))}, nil
}

func (s *fakeParticipantStore) ids() []int64 {
	ids := make([]int64, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// fakeInteractionStore keeps the interaction log in memory and derives the
// candidate lists from it.
type fakeInteractionStore struct {
	participants *fakeParticipantStore
	log          []model.Interaction
}

func (s *fakeInteractionStore) Append(_ context.Context, actorID, targetID int64, liked bool, message string) (model.Interaction, error) {
	interaction := model.Interaction{
		ID:       int64(len(s.log) + 1),
		ActorID:  actorID,
		TargetID: targetID,
		Liked:    liked,
		Message:  message,
	}
	s.log = append(s.log, interaction)
	return interaction, nil
}

func (s *fakeInteractionStore) HasLiked(_ context.Context, actorID, targetID int64) (bool, error) {
	for _, i := range s.log {
		if i.ActorID == actorID && i.TargetID == targetID && i.Liked {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeInteractionStore) answered(actorID, targetID int64) bool {
	for _, i := range s.log {
		if i.ActorID == actorID && i.TargetID == targetID {
			return true
		}
	}
	return false
}

func (s *fakeInteractionStore) ListLikers(ctx context.Context, userID int64, limit int) ([]model.Participant, error) {
	out := make([]model.Participant, 0)
	for _, id := range s.participants.ids() {
		if len(out) == limit {
			break
		}
		liked, _ := s.HasLiked(ctx, id, userID)
		if liked && !s.answered(userID, id) {
			out = append(out, s.participants.items[id])
		}
	}
	return out, nil
}

func (s *fakeInteractionStore) ListCold(_ context.Context, userID int64, limit int) ([]model.Participant, error) {
	out := make([]model.Participant, 0)
	for _, id := range s.participants.ids() {
		if len(out) == limit {
			break
		}
		if id != userID && !s.answered(userID, id) {
			out = append(out, s.participants.items[id])
		}
	}
	return out, nil
}

func (s *fakeInteractionStore) count() int {
	return len(s.log)
}

type fakeSupportStore struct {
	created []model.SupportMessage
	pending map[int64]bool
}

func (s *fakeSupportStore) Create(_ context.Context, userID int64, text string) (model.SupportMessage, error) {
	msg := model.SupportMessage{
		ID:     int64(len(s.created) + 1),
		UserID: userID,
		Text:   text,
		Status: enums.SupportStatusPending,
	}
	s.created = append(s.created, msg)
	s.pending[userID] = true
	return msg, nil
}

func (s *fakeSupportStore) AnswerLatest(_ context.Context, userID int64, response string) (model.SupportMessage, error) {
	if !s.pending[userID] {
		return model.SupportMessage{}, pgrepo.ErrSupportMessageNotFound
	}
	delete(s.pending, userID)
	return model.SupportMessage{UserID: userID, Response: response, Status: enums.SupportStatusAnswered}, nil
}
