package botapp

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
	tginfra "github.com/ave4ge/findateammatebot/internal/infra/telegram"
	"github.com/ave4ge/findateammatebot/internal/services/access"
	adminsvc "github.com/ave4ge/findateammatebot/internal/services/admin"
	"github.com/ave4ge/findateammatebot/internal/services/auth"
	"github.com/ave4ge/findateammatebot/internal/services/commerce"
	"github.com/ave4ge/findateammatebot/internal/services/ledger"
	"github.com/ave4ge/findateammatebot/internal/services/matching"
	mediasvc "github.com/ave4ge/findateammatebot/internal/services/media"
	modsvc "github.com/ave4ge/findateammatebot/internal/services/moderation"
	"github.com/ave4ge/findateammatebot/internal/services/participants"
	"github.com/ave4ge/findateammatebot/internal/services/referrals"
	"github.com/ave4ge/findateammatebot/internal/services/sessions"
	"github.com/ave4ge/findateammatebot/internal/services/support"
	"github.com/ave4ge/findateammatebot/internal/ui"
)

// Gateway delivers outgoing messages. *tginfra.Bot satisfies it.
type Gateway interface {
	Send(ctx context.Context, msg tginfra.OutgoingMessage) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type Deps struct {
	Gateway      Gateway
	Sessions     sessions.Store
	Access       *access.Service
	Participants *participants.Service
	Moderation   *modsvc.Service
	Matching     *matching.Service
	Ledger       *ledger.Service
	Referrals    *referrals.Service
	Commerce     *commerce.Service
	Admin        *adminsvc.Service
	Support      *support.Service
	// Media and Tokens are optional.
	Media  *mediasvc.Service
	Tokens *auth.TokenManager

	BotUsername       func() string
	VerificationsPage int
	Logger            *zap.Logger
}

// Handler turns gateway events into service calls. Every failure is converted
// into a chat reply so a single bad update never stops the listener.
type Handler struct {
	gateway      Gateway
	sessions     sessions.Store
	access       *access.Service
	participants *participants.Service
	moderation   *modsvc.Service
	matching     *matching.Service
	ledger       *ledger.Service
	referrals    *referrals.Service
	commerce     *commerce.Service
	admin        *adminsvc.Service
	support      *support.Service
	media        *mediasvc.Service
	tokens       *auth.TokenManager

	botUsername       func() string
	verificationsPage int
	logger            *zap.Logger
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	botUsername := deps.BotUsername
	if botUsername == nil {
		botUsername = func() string { return "" }
	}
	page := deps.VerificationsPage
	if page <= 0 {
		page = 5
	}
	return &Handler{
		gateway:           deps.Gateway,
		sessions:          deps.Sessions,
		access:            deps.Access,
		participants:      deps.Participants,
		moderation:        deps.Moderation,
		matching:          deps.Matching,
		ledger:            deps.Ledger,
		referrals:         deps.Referrals,
		commerce:          deps.Commerce,
		admin:             deps.Admin,
		support:           deps.Support,
		media:             deps.Media,
		tokens:            deps.Tokens,
		botUsername:       botUsername,
		verificationsPage: page,
		logger:            logger,
	}
}

func (h *Handler) Handlers() tginfra.Handlers {
	return tginfra.Handlers{
		OnCommand: func(ctx context.Context, u tginfra.CommandUpdate) error {
			h.settle(ctx, u.ChatID, u.UserID, "", h.handleCommand(ctx, u))
			return nil
		},
		OnText: func(ctx context.Context, u tginfra.TextUpdate) error {
			h.settle(ctx, u.ChatID, u.UserID, "", h.handleText(ctx, u))
			return nil
		},
		OnPhoto: func(ctx context.Context, u tginfra.PhotoUpdate) error {
			h.settle(ctx, u.ChatID, u.UserID, "", h.handlePhoto(ctx, u))
			return nil
		},
		OnCallback: func(ctx context.Context, u tginfra.CallbackUpdate) error {
			h.settle(ctx, u.ChatID, u.UserID, u.CallbackID, h.handleCallback(ctx, u))
			return nil
		},
	}
}

// settle reports err to the user. Callback failures are shown as a toast.
func (h *Handler) settle(ctx context.Context, chatID, userID int64, callbackID string, err error) {
	if err == nil {
		return
	}

	text, expected := describe(err)
	if expected {
		h.logger.Debug("update rejected", zap.Int64("user_id", userID), zap.Error(err))
	} else {
		h.logger.Error("handle update", zap.Int64("user_id", userID), zap.Error(err))
	}

	if callbackID != "" {
		if answerErr := h.gateway.AnswerCallback(ctx, callbackID, stripTags(text)); answerErr == nil {
			return
		}
	}
	if sendErr := h.reply(ctx, chatID, text); sendErr != nil {
		h.logger.Warn("send error reply", zap.Int64("chat_id", chatID), zap.Error(sendErr))
	}
}

// describe maps service errors to the reply shown to the user. expected is
// false for failures that deserve an error log.
func describe(err error) (text string, expected bool) {
	if state, ok := participants.IsInvalidState(err); ok {
		switch {
		case state.Banned:
			return ui.BannedText, true
		case state.Verification == enums.VerificationPending:
			return ui.ProfilePendingText, true
		case state.Verification == enums.VerificationRejected:
			return ui.ProfileRejectedText, true
		default:
			return ui.NoProfileText, true
		}
	}
	if tooFast, ok := ledger.IsTooFast(err); ok {
		return ui.TooFast(tooFast.RetryAfter()), true
	}
	if tooFast, ok := support.IsTooFast(err); ok {
		return ui.TooFast(tooFast.RetryAfterSec), true
	}
	if insufficient, ok := commerce.IsInsufficientBalance(err); ok {
		return ui.InsufficientBalance(insufficient.Price), true
	}

	switch {
	case errors.Is(err, modsvc.ErrForbidden), errors.Is(err, adminsvc.ErrForbidden), errors.Is(err, support.ErrForbidden):
		return ui.ForbiddenText, true
	case errors.Is(err, participants.ErrNotFound), errors.Is(err, adminsvc.ErrNotFound),
		errors.Is(err, modsvc.ErrNotFound), errors.Is(err, ledger.ErrNotFound), errors.Is(err, commerce.ErrNotFound):
		return ui.UserNotFoundText, true
	case errors.Is(err, commerce.ErrUnknownPromo), errors.Is(err, errStaleAction):
		return ui.StaleButtonText, true
	case errors.Is(err, support.ErrNothingToAnswer):
		return ui.NothingToAnswerText, true
	case errors.Is(err, modsvc.ErrValidation):
		return ui.ProfileInvalidText, true
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, adminsvc.ErrValidation), errors.Is(err, support.ErrValidation):
		return ui.InvalidInputText, true
	default:
		return ui.InternalErrorText, false
	}
}

var errStaleAction = errors.New("stale action")

// enter registers the sender on first contact and refreshes the display
// handle. ok is false when the sender is banned; the reply is already sent.
func (h *Handler) enter(ctx context.Context, chatID, userID int64, username string) (model.Participant, bool, error) {
	reg, err := h.participants.Register(ctx, userID, username, "")
	if err != nil {
		return model.Participant{}, false, err
	}
	if reg.Participant.Banned {
		return reg.Participant, false, h.reply(ctx, chatID, ui.BannedText)
	}
	return reg.Participant, true, nil
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) error {
	return h.gateway.Send(ctx, tginfra.OutgoingMessage{ChatID: chatID, Text: text})
}

func (h *Handler) replyWith(ctx context.Context, chatID int64, text string, rows [][]tginfra.InlineButton) error {
	return h.gateway.Send(ctx, tginfra.OutgoingMessage{ChatID: chatID, Text: text, Inline: rows})
}

func (h *Handler) sendMenu(ctx context.Context, chatID int64) error {
	return h.replyWith(ctx, chatID, ui.MainMenuText, ui.MainMenu())
}

// sendWelcome shows the menu and installs the persistent menu keyboard.
func (h *Handler) sendWelcome(ctx context.Context, chatID int64) error {
	if err := h.sendMenu(ctx, chatID); err != nil {
		return err
	}
	return h.gateway.Send(ctx, tginfra.OutgoingMessage{
		ChatID: chatID,
		Text:   ui.MenuHintText,
		Reply:  ui.MenuKeyboard(),
	})
}

func (h *Handler) loadSession(ctx context.Context, userID int64) (model.Session, error) {
	return h.sessions.Load(ctx, userID)
}

func (h *Handler) saveSession(ctx context.Context, session model.Session) error {
	return h.sessions.Save(ctx, session)
}

func (h *Handler) resetSession(ctx context.Context, userID int64) error {
	return h.sessions.Clear(ctx, userID)
}

func stripTags(text string) string {
	var b strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
