package botapp

import (
	"context"

	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
	tginfra "github.com/ave4ge/findateammatebot/internal/infra/telegram"
	"github.com/ave4ge/findateammatebot/internal/ui"
)

// notify delivers msg best-effort. The state change that triggered it is
// never rolled back.
func (h *Handler) notify(ctx context.Context, msg tginfra.OutgoingMessage) {
	if msg.ChatID == 0 {
		return
	}
	if err := h.gateway.Send(ctx, msg); err != nil {
		h.logger.Warn("notification failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

func (h *Handler) notifyMany(ctx context.Context, chatIDs []int64, msg tginfra.OutgoingMessage) {
	for _, id := range chatIDs {
		msg.ChatID = id
		h.notify(ctx, msg)
	}
}

func (h *Handler) notifyVerifiers(ctx context.Context, participant model.Participant) {
	h.notifyMany(ctx, h.access.VerifierIDs(), tginfra.OutgoingMessage{
		Text:        ui.PendingProfile(participant),
		PhotoFileID: participant.PhotoFileID,
		Inline:      ui.ReviewKeyboard(participant.UserID),
	})
}

func (h *Handler) afterLike(ctx context.Context, actor model.Participant, targetID int64, result model.LikeResult) {
	h.notify(ctx, tginfra.OutgoingMessage{
		ChatID: targetID,
		Text:   ui.LikedNotice(actor, result.Interaction.Message),
	})

	if result.Mutual {
		target, err := h.participants.Get(ctx, targetID)
		if err != nil {
			h.logger.Warn("load mutual match", zap.Int64("user_id", targetID), zap.Error(err))
		} else {
			h.notify(ctx, tginfra.OutgoingMessage{ChatID: actor.UserID, Text: ui.MutualNotice(target)})
			h.notify(ctx, tginfra.OutgoingMessage{ChatID: targetID, Text: ui.MutualNotice(actor)})
		}
	}

	if completion := result.ReferralComplete; completion != nil {
		h.logger.Info("referral completed",
			zap.Int64("inviter_id", completion.InviterID),
			zap.Int64("invitee_id", completion.InviteeID),
			zap.Int64("reward", completion.Reward),
		)
		h.notify(ctx, tginfra.OutgoingMessage{ChatID: completion.InviterID, Text: ui.ReferralCompleted(*completion)})
	}
}
