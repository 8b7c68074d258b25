package botapp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
	tginfra "github.com/ave4ge/findateammatebot/internal/infra/telegram"
	"github.com/ave4ge/findateammatebot/internal/services/ledger"
	modsvc "github.com/ave4ge/findateammatebot/internal/services/moderation"
	"github.com/ave4ge/findateammatebot/internal/services/support"
	"github.com/ave4ge/findateammatebot/internal/ui"
)

func (h *Handler) handleText(ctx context.Context, u tginfra.TextUpdate) error {
	if _, ok, err := h.enter(ctx, u.ChatID, u.UserID, u.Username); err != nil || !ok {
		return err
	}

	if u.Text == ui.MenuButton {
		if err := h.resetSession(ctx, u.UserID); err != nil {
			return err
		}
		return h.sendMenu(ctx, u.ChatID)
	}

	session, err := h.loadSession(ctx, u.UserID)
	if err != nil {
		return err
	}

	switch session.Step {
	case enums.FlowStepWaitingNickname:
		session.Draft.Nickname = u.Text
		session.Step = enums.FlowStepWaitingPhoto
		if err := h.saveSession(ctx, session); err != nil {
			return err
		}
		return h.reply(ctx, u.ChatID, ui.AskPhotoText)
	case enums.FlowStepWaitingPhoto:
		return h.reply(ctx, u.ChatID, ui.ExpectPhotoText)
	case enums.FlowStepWaitingGameModes:
		session.Draft.GameModes = u.Text
		return h.submitProfile(ctx, u.ChatID, u.Username, session)
	case enums.FlowStepWaitingSupport:
		return h.submitSupport(ctx, u, session)
	case enums.FlowStepWaitingLikeNote:
		return h.submitLikeNote(ctx, u, session)
	case enums.FlowStepWaitingReply:
		return h.submitReply(ctx, u, session)
	default:
		return h.reply(ctx, u.ChatID, ui.UnknownCommandText)
	}
}

func (h *Handler) handlePhoto(ctx context.Context, u tginfra.PhotoUpdate) error {
	if _, ok, err := h.enter(ctx, u.ChatID, u.UserID, u.Username); err != nil || !ok {
		return err
	}

	session, err := h.loadSession(ctx, u.UserID)
	if err != nil {
		return err
	}
	if session.Step != enums.FlowStepWaitingPhoto {
		return h.reply(ctx, u.ChatID, ui.UnknownCommandText)
	}

	session.Draft.PhotoFileID = u.FileID
	session.Step = enums.FlowStepWaitingGameModes
	if err := h.saveSession(ctx, session); err != nil {
		return err
	}
	return h.reply(ctx, u.ChatID, ui.AskGameModesText)
}

func (h *Handler) beginProfile(ctx context.Context, chatID, userID int64, prompt string) error {
	session, err := h.loadSession(ctx, userID)
	if err != nil {
		return err
	}
	session.Step = enums.FlowStepWaitingNickname
	session.Draft = model.ProfileDraft{}
	session.Queue = model.CandidateQueue{}
	if err := h.saveSession(ctx, session); err != nil {
		return err
	}
	return h.reply(ctx, chatID, prompt)
}

func (h *Handler) submitProfile(ctx context.Context, chatID int64, username string, session model.Session) error {
	participant, err := h.moderation.Submit(ctx, session.UserID, session.Draft)
	if errors.Is(err, modsvc.ErrValidation) {
		if resetErr := h.resetSession(ctx, session.UserID); resetErr != nil {
			h.logger.Warn("reset session after invalid profile", zap.Int64("user_id", session.UserID), zap.Error(resetErr))
		}
		return err
	}
	if err != nil {
		return err
	}
	if err := h.resetSession(ctx, session.UserID); err != nil {
		return err
	}

	h.logger.Info("profile submitted", zap.Int64("user_id", participant.UserID))
	h.archivePhoto(ctx, participant)

	if participant.Username == "" {
		participant.Username = username
	}
	h.notifyVerifiers(ctx, participant)

	if err := h.reply(ctx, chatID, ui.ProfileSubmittedText); err != nil {
		return err
	}
	return h.sendMenu(ctx, chatID)
}

// archivePhoto copies the submitted photo into object storage. Failures only
// cost the staff preview, so they are logged.
func (h *Handler) archivePhoto(ctx context.Context, participant model.Participant) {
	if !h.media.Enabled() {
		return
	}
	key, err := h.media.ArchivePhoto(ctx, participant.UserID, participant.PhotoFileID)
	if err != nil {
		h.logger.Warn("archive profile photo", zap.Int64("user_id", participant.UserID), zap.Error(err))
		return
	}
	h.logger.Debug("profile photo archived", zap.Int64("user_id", participant.UserID), zap.String("key", key))
}

func (h *Handler) submitSupport(ctx context.Context, u tginfra.TextUpdate, session model.Session) error {
	message, err := h.support.Submit(ctx, u.UserID, u.Text)
	if errors.Is(err, support.ErrValidation) {
		if strings.TrimSpace(u.Text) == "" {
			return h.reply(ctx, u.ChatID, ui.SupportEmptyText)
		}
		return h.reply(ctx, u.ChatID, ui.SupportTooLong(h.support.MaxLength()))
	}
	if err != nil {
		return err
	}
	if err := h.resetSession(ctx, session.UserID); err != nil {
		return err
	}

	h.notifyMany(ctx, h.access.AdminIDs(), tginfra.OutgoingMessage{
		Text:   ui.SupportTicket(u.UserID, u.Username, message.Text),
		Inline: ui.SupportTicketKeyboard(u.UserID),
	})
	if err := h.reply(ctx, u.ChatID, ui.SupportSentText); err != nil {
		return err
	}
	return h.sendMenu(ctx, u.ChatID)
}

func (h *Handler) submitLikeNote(ctx context.Context, u tginfra.TextUpdate, session model.Session) error {
	if err := h.ledger.ValidateMessage(u.Text); err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			return h.reply(ctx, u.ChatID, fmt.Sprintf(ui.LikeNoteTooLongText, h.ledger.MessageMax()))
		}
		return err
	}

	targetID := session.LikeTarget
	session.Step = enums.FlowStepIdle
	session.LikeTarget = 0
	if targetID == 0 || !slices.Contains(session.Queue.IDs, targetID) {
		if err := h.saveSession(ctx, session); err != nil {
			return err
		}
		return errStaleAction
	}
	return h.answerCandidate(ctx, u.ChatID, "", &session, targetID, true, u.Text)
}

func (h *Handler) submitReply(ctx context.Context, u tginfra.TextUpdate, session model.Session) error {
	targetID := session.ReplyTo
	if targetID == 0 {
		return errStaleAction
	}

	message, err := h.support.Answer(ctx, u.UserID, targetID, u.Text)
	if errors.Is(err, support.ErrValidation) {
		return h.reply(ctx, u.ChatID, ui.ReplyEmptyText)
	}
	if err != nil {
		if errors.Is(err, support.ErrNothingToAnswer) {
			if resetErr := h.resetSession(ctx, u.UserID); resetErr != nil {
				h.logger.Warn("reset reply session", zap.Int64("user_id", u.UserID), zap.Error(resetErr))
			}
		}
		return err
	}
	if err := h.resetSession(ctx, u.UserID); err != nil {
		return err
	}

	if err := h.gateway.Send(ctx, tginfra.OutgoingMessage{ChatID: targetID, Text: ui.SupportAnswer(message.Response)}); err != nil {
		h.logger.Warn("deliver support answer", zap.Int64("chat_id", targetID), zap.Error(err))
		return h.reply(ctx, u.ChatID, fmt.Sprintf(ui.ReplyFailedText, targetID))
	}
	return h.reply(ctx, u.ChatID, fmt.Sprintf(ui.ReplySentText, targetID))
}
