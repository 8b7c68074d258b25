package botapp

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
	tginfra "github.com/ave4ge/findateammatebot/internal/infra/telegram"
	"github.com/ave4ge/findateammatebot/internal/services/referrals"
	"github.com/ave4ge/findateammatebot/internal/services/support"
	"github.com/ave4ge/findateammatebot/internal/ui"
)

func (h *Handler) handleCallback(ctx context.Context, u tginfra.CallbackUpdate) error {
	action, err := ui.ParseAction(u.Data)
	if err != nil {
		h.logger.Debug("unknown callback data", zap.Int64("user_id", u.UserID), zap.String("data", u.Data))
		return errStaleAction
	}

	if _, ok, err := h.enter(ctx, u.ChatID, u.UserID, u.Username); err != nil || !ok {
		if err == nil {
			h.ack(ctx, u.CallbackID, "")
		}
		return err
	}

	switch action.Kind {
	case ui.ActionLike, ui.ActionDislike:
		session, err := h.loadSession(ctx, u.UserID)
		if err != nil {
			return err
		}
		return h.answerCandidate(ctx, u.ChatID, u.CallbackID, &session, action.TargetID, action.Kind == ui.ActionLike, "")
	case ui.ActionBuy:
		return h.buy(ctx, u, action.PromoID)
	}

	// The remaining actions answer with a message, not a toast.
	h.ack(ctx, u.CallbackID, "")

	switch action.Kind {
	case ui.ActionMenu:
		if err := h.resetSession(ctx, u.UserID); err != nil {
			return err
		}
		return h.sendMenu(ctx, u.ChatID)
	case ui.ActionCancel:
		if err := h.resetSession(ctx, u.UserID); err != nil {
			return err
		}
		if err := h.reply(ctx, u.ChatID, ui.CancelledText); err != nil {
			return err
		}
		return h.sendMenu(ctx, u.ChatID)
	case ui.ActionMyProfile:
		return h.showProfile(ctx, u)
	case ui.ActionEditProfile:
		return h.beginProfile(ctx, u.ChatID, u.UserID, ui.EditProfileText)
	case ui.ActionFind:
		return h.find(ctx, u)
	case ui.ActionFound:
		likes, err := h.participants.FoundTeammates(ctx, u.UserID)
		if err != nil {
			return err
		}
		return h.replyWith(ctx, u.ChatID, ui.RenderFoundTeammates(likes), ui.BackToMenu())
	case ui.ActionShop:
		participant, err := h.participants.Get(ctx, u.UserID)
		if err != nil {
			return err
		}
		return h.replyWith(ctx, u.ChatID, ui.RenderShop(participant.Balance), ui.ShopKeyboard(h.commerce.Catalog()))
	case ui.ActionReferral:
		return h.showReferral(ctx, u)
	case ui.ActionSupport:
		session, err := h.loadSession(ctx, u.UserID)
		if err != nil {
			return err
		}
		session.Step = enums.FlowStepWaitingSupport
		if err := h.saveSession(ctx, session); err != nil {
			return err
		}
		return h.replyWith(ctx, u.ChatID, ui.SupportPrompt(h.support.MaxLength()), ui.CancelKeyboard())
	case ui.ActionLikeNote:
		session, err := h.loadSession(ctx, u.UserID)
		if err != nil {
			return err
		}
		if !slices.Contains(session.Queue.IDs, action.TargetID) {
			return errStaleAction
		}
		session.Step = enums.FlowStepWaitingLikeNote
		session.LikeTarget = action.TargetID
		if err := h.saveSession(ctx, session); err != nil {
			return err
		}
		return h.replyWith(ctx, u.ChatID, fmt.Sprintf(ui.LikeNotePromptText, h.ledger.MessageMax()), ui.CancelKeyboard())
	case ui.ActionApprove:
		return h.review(ctx, u, action.TargetID, true)
	case ui.ActionReject:
		return h.review(ctx, u, action.TargetID, false)
	case ui.ActionReply:
		if !h.access.IsStaff(u.UserID) {
			return support.ErrForbidden
		}
		session, err := h.loadSession(ctx, u.UserID)
		if err != nil {
			return err
		}
		session.Step = enums.FlowStepWaitingReply
		session.ReplyTo = action.TargetID
		if err := h.saveSession(ctx, session); err != nil {
			return err
		}
		return h.replyWith(ctx, u.ChatID, fmt.Sprintf(ui.ReplyPromptText, action.TargetID), ui.CancelKeyboard())
	default:
		return errStaleAction
	}
}

func (h *Handler) ack(ctx context.Context, callbackID, text string) {
	if callbackID == "" {
		return
	}
	if err := h.gateway.AnswerCallback(ctx, callbackID, text); err != nil {
		h.logger.Debug("answer callback", zap.Error(err))
	}
}

func (h *Handler) showProfile(ctx context.Context, u tginfra.CallbackUpdate) error {
	overview, err := h.participants.Overview(ctx, u.UserID)
	if err != nil {
		return err
	}
	if !overview.Participant.HasProfile() {
		return h.beginProfile(ctx, u.ChatID, u.UserID, ui.CreateProfileText)
	}

	return h.gateway.Send(ctx, tginfra.OutgoingMessage{
		ChatID:      u.ChatID,
		Text:        ui.RenderMyProfile(overview, h.admin.MaxWarnings()),
		PhotoFileID: overview.Participant.PhotoFileID,
		Inline:      ui.MyProfileKeyboard(overview.Participant),
	})
}

func (h *Handler) showReferral(ctx context.Context, u tginfra.CallbackUpdate) error {
	summary, err := h.referrals.Summary(ctx, u.UserID, h.botUsername())
	if err != nil {
		return err
	}

	msg := tginfra.OutgoingMessage{
		ChatID: u.ChatID,
		Text:   ui.RenderReferral(summary),
		Inline: ui.BackToMenu(),
	}
	png, err := referrals.QRCode(summary.Link)
	if err != nil {
		h.logger.Warn("render referral qr", zap.Int64("user_id", u.UserID), zap.Error(err))
		return h.gateway.Send(ctx, msg)
	}
	msg.PhotoBytes = png
	msg.PhotoName = "referral.png"
	return h.gateway.Send(ctx, msg)
}

func (h *Handler) find(ctx context.Context, u tginfra.CallbackUpdate) error {
	if _, err := h.participants.RequireSearchable(ctx, u.UserID); err != nil {
		return err
	}

	session, err := h.loadSession(ctx, u.UserID)
	if err != nil {
		return err
	}
	session.Step = enums.FlowStepIdle
	candidate, err := h.matching.Begin(ctx, &session)
	if err != nil {
		return err
	}
	if err := h.saveSession(ctx, session); err != nil {
		return err
	}
	return h.showCandidate(ctx, u.ChatID, candidate, session.Queue.Mode)
}

func (h *Handler) showCandidate(ctx context.Context, chatID int64, candidate *model.Participant, mode enums.MatchMode) error {
	if candidate == nil {
		return h.replyWith(ctx, chatID, ui.NoCandidatesText, ui.BackToMenu())
	}
	return h.gateway.Send(ctx, tginfra.OutgoingMessage{
		ChatID:      chatID,
		Text:        ui.CandidateCard(*candidate, mode),
		PhotoFileID: candidate.PhotoFileID,
		Inline:      ui.CandidateKeyboard(candidate.UserID),
	})
}

// answerCandidate records the like or dislike on a queued candidate and shows
// the next one. callbackID is empty when the like comes from a typed note.
func (h *Handler) answerCandidate(ctx context.Context, chatID int64, callbackID string, session *model.Session, targetID int64, liked bool, message string) error {
	if !slices.Contains(session.Queue.IDs, targetID) {
		return errStaleAction
	}
	actor, err := h.participants.RequireSearchable(ctx, session.UserID)
	if err != nil {
		return err
	}

	previousMode := session.Queue.Mode
	response, err := h.matching.Respond(ctx, session, targetID, liked, message)
	if err != nil {
		return err
	}
	// A button answer supersedes a pending note on any candidate.
	if session.Step == enums.FlowStepWaitingLikeNote {
		session.Step = enums.FlowStepIdle
		session.LikeTarget = 0
	}
	if err := h.saveSession(ctx, *session); err != nil {
		return err
	}

	status := ui.DislikeSentText
	if response.Like != nil {
		status = ui.LikeSent(response.Like.Credited)
		h.afterLike(ctx, actor, targetID, *response.Like)
	}
	if callbackID != "" {
		h.ack(ctx, callbackID, status)
	} else if err := h.reply(ctx, chatID, status); err != nil {
		return err
	}

	if previousMode == enums.MatchModeLikers && session.Queue.Switched {
		if err := h.reply(ctx, chatID, ui.LikersExhaustedText); err != nil {
			return err
		}
	}
	return h.showCandidate(ctx, chatID, response.Next, response.Mode)
}

func (h *Handler) buy(ctx context.Context, u tginfra.CallbackUpdate, promoID string) error {
	receipt, err := h.commerce.Purchase(ctx, u.UserID, promoID)
	if err != nil {
		return err
	}
	h.ack(ctx, u.CallbackID, "")

	buyer, err := h.participants.Get(ctx, u.UserID)
	if err != nil {
		h.logger.Warn("load buyer for purchase notice", zap.Int64("user_id", u.UserID), zap.Error(err))
		buyer = model.Participant{UserID: u.UserID, Username: u.Username}
	}
	h.notifyMany(ctx, h.access.AdminIDs(), tginfra.OutgoingMessage{Text: ui.PurchaseNotice(buyer, receipt)})

	return h.replyWith(ctx, u.ChatID, ui.PurchaseDone(receipt), ui.BackToMenu())
}

func (h *Handler) review(ctx context.Context, u tginfra.CallbackUpdate, targetID int64, approve bool) error {
	decide := h.moderation.Reject
	notice := ui.ProfileDeclinedText
	if approve {
		decide = h.moderation.Approve
		notice = ui.ProfileApprovedText
	}

	decision, err := decide(ctx, u.UserID, targetID)
	if err != nil {
		return err
	}
	h.logger.Info("profile reviewed",
		zap.Int64("actor_id", u.UserID),
		zap.Int64("user_id", targetID),
		zap.String("from", string(decision.Previous)),
		zap.String("to", string(decision.Participant.Verification)),
	)

	h.notify(ctx, tginfra.OutgoingMessage{ChatID: targetID, Text: notice})
	return h.reply(ctx, u.ChatID, ui.ReviewDone(targetID, decision.Participant.Verification))
}
