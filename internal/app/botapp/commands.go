package botapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
	tginfra "github.com/ave4ge/findateammatebot/internal/infra/telegram"
	adminsvc "github.com/ave4ge/findateammatebot/internal/services/admin"
	"github.com/ave4ge/findateammatebot/internal/ui"
)

var errMissingTarget = errors.New("command target is missing")

func (h *Handler) handleCommand(ctx context.Context, u tginfra.CommandUpdate) error {
	if u.Command == "start" {
		return h.start(ctx, u)
	}

	if _, ok, err := h.enter(ctx, u.ChatID, u.UserID, u.Username); err != nil || !ok {
		return err
	}

	switch u.Command {
	case "give":
		return h.give(ctx, u)
	case "ban":
		return h.withTarget(ctx, u, ui.BanUsageText, func(target model.Participant) error {
			if err := h.admin.Ban(ctx, u.UserID, target.UserID); err != nil {
				return err
			}
			return h.reply(ctx, u.ChatID, ui.Banned(target.UserID))
		})
	case "unban":
		return h.withTarget(ctx, u, ui.UnbanUsageText, func(target model.Participant) error {
			if err := h.admin.Unban(ctx, u.UserID, target.UserID); err != nil {
				return err
			}
			return h.reply(ctx, u.ChatID, ui.Unbanned(target.UserID))
		})
	case "warn":
		return h.withTarget(ctx, u, ui.WarnUsageText, func(target model.Participant) error {
			result, err := h.admin.Warn(ctx, u.UserID, target.UserID)
			if err != nil {
				return err
			}
			h.notify(ctx, tginfra.OutgoingMessage{
				ChatID: target.UserID,
				Text:   ui.WarnedNotice(result.Warnings, result.Max, result.Banned),
			})
			return h.reply(ctx, u.ChatID, ui.Warned(target.UserID, result.Warnings, result.Max, result.Banned))
		})
	case "clear":
		return h.withTarget(ctx, u, ui.ClearUsageText, func(target model.Participant) error {
			if err := h.admin.ClearProfile(ctx, u.UserID, target.UserID); err != nil {
				return err
			}
			if err := h.resetSession(ctx, target.UserID); err != nil {
				h.logger.Warn("reset session of cleared profile", zap.Int64("user_id", target.UserID), zap.Error(err))
			}
			h.notify(ctx, tginfra.OutgoingMessage{ChatID: target.UserID, Text: ui.ProfileClearedText})
			return h.reply(ctx, u.ChatID, ui.ProfileCleared(target.UserID))
		})
	case "clearpoint":
		return h.withTarget(ctx, u, ui.ClearPointUsageText, func(target model.Participant) error {
			if err := h.admin.ClearBalance(ctx, u.UserID, target.UserID); err != nil {
				return err
			}
			return h.reply(ctx, u.ChatID, ui.BalanceCleared(target.UserID))
		})
	case "stats":
		stats, err := h.admin.Stats(ctx, u.UserID)
		if err != nil {
			return err
		}
		return h.reply(ctx, u.ChatID, ui.RenderStats(stats))
	case "users":
		page, err := h.admin.Users(ctx, u.UserID)
		if err != nil {
			return err
		}
		return h.reply(ctx, u.ChatID, ui.RenderUsers(page.Items, page.Total))
	case "leaders":
		leaders, err := h.admin.Leaderboard(ctx, u.UserID)
		if err != nil {
			return err
		}
		return h.reply(ctx, u.ChatID, ui.RenderLeaders(leaders))
	case "verifications":
		return h.verifications(ctx, u)
	case "apitoken":
		return h.apiToken(ctx, u)
	default:
		return h.reply(ctx, u.ChatID, ui.UnknownCommandText)
	}
}

func (h *Handler) start(ctx context.Context, u tginfra.CommandUpdate) error {
	reg, err := h.participants.Register(ctx, u.UserID, u.Username, u.Args)
	if err != nil {
		return err
	}
	if reg.Participant.Banned {
		return h.reply(ctx, u.ChatID, ui.BannedText)
	}
	if err := h.resetSession(ctx, u.UserID); err != nil {
		h.logger.Warn("reset session on start", zap.Int64("user_id", u.UserID), zap.Error(err))
	}

	if reg.Created {
		h.logger.Info("participant registered",
			zap.Int64("user_id", u.UserID),
			zap.Int64("inviter_id", reg.InviterID),
		)
	}
	if reg.InviterID != 0 {
		if err := h.reply(ctx, u.ChatID, fmt.Sprintf(ui.ReferralJoinedText, h.referrals.MatchesRequired())); err != nil {
			return err
		}
	}
	return h.sendWelcome(ctx, u.ChatID)
}

// give handles "/give <amount> [@user|id]"; the target may also come from the
// replied-to message.
func (h *Handler) give(ctx context.Context, u tginfra.CommandUpdate) error {
	if !h.access.IsAdmin(u.UserID) {
		return adminsvc.ErrForbidden
	}

	fields := strings.Fields(u.Args)
	if len(fields) == 0 || len(fields) > 2 {
		return h.reply(ctx, u.ChatID, ui.GiveUsageText)
	}
	amount, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return h.reply(ctx, u.ChatID, ui.GiveUsageText)
	}

	ref := ""
	if len(fields) == 2 {
		ref = fields[1]
	}
	target, err := h.resolveTarget(ctx, u, ref)
	if errors.Is(err, errMissingTarget) {
		return h.reply(ctx, u.ChatID, ui.SpecifyUserText)
	}
	if err != nil {
		return err
	}

	if _, err := h.admin.Grant(ctx, u.UserID, target.UserID, amount); err != nil {
		return err
	}
	if amount > 0 {
		h.notify(ctx, tginfra.OutgoingMessage{ChatID: target.UserID, Text: ui.GrantedNotice(amount)})
	}
	return h.reply(ctx, u.ChatID, ui.Granted(target.UserID, amount))
}

// withTarget runs fn for the command target. Only admins get past the usage
// hint.
func (h *Handler) withTarget(ctx context.Context, u tginfra.CommandUpdate, usage string, fn func(model.Participant) error) error {
	if !h.access.IsAdmin(u.UserID) {
		return adminsvc.ErrForbidden
	}
	if strings.Contains(strings.TrimSpace(u.Args), " ") {
		return h.reply(ctx, u.ChatID, usage)
	}

	target, err := h.resolveTarget(ctx, u, u.Args)
	if errors.Is(err, errMissingTarget) {
		return h.reply(ctx, u.ChatID, usage)
	}
	if err != nil {
		return err
	}
	return fn(target)
}

func (h *Handler) resolveTarget(ctx context.Context, u tginfra.CommandUpdate, ref string) (model.Participant, error) {
	if strings.TrimSpace(ref) != "" {
		return h.admin.ResolveTarget(ctx, ref)
	}
	if u.ReplyToUserID != 0 {
		return h.admin.ResolveTarget(ctx, strconv.FormatInt(u.ReplyToUserID, 10))
	}
	return model.Participant{}, errMissingTarget
}

func (h *Handler) verifications(ctx context.Context, u tginfra.CommandUpdate) error {
	page, err := h.moderation.Pending(ctx, u.UserID, h.verificationsPage)
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		return h.reply(ctx, u.ChatID, ui.NoPendingText)
	}

	if err := h.reply(ctx, u.ChatID, ui.PendingHeader(page.Total)); err != nil {
		return err
	}
	for i, p := range page.Items {
		msg := tginfra.OutgoingMessage{
			ChatID:      u.ChatID,
			Text:        ui.PendingItem(i+1, p),
			PhotoFileID: p.PhotoFileID,
			Inline:      ui.ReviewKeyboard(p.UserID),
		}
		if err := h.gateway.Send(ctx, msg); err != nil {
			// A photo that telegram no longer serves must not hide the card.
			h.logger.Warn("send pending profile with photo", zap.Int64("user_id", p.UserID), zap.Error(err))
			msg.PhotoFileID = ""
			if err := h.gateway.Send(ctx, msg); err != nil {
				return err
			}
		}
	}
	if rest := page.Total - int64(len(page.Items)); rest > 0 {
		return h.reply(ctx, u.ChatID, ui.PendingRest(rest))
	}
	return nil
}

func (h *Handler) apiToken(ctx context.Context, u tginfra.CommandUpdate) error {
	if !h.access.IsStaff(u.UserID) {
		return adminsvc.ErrForbidden
	}
	if h.tokens == nil {
		return h.reply(ctx, u.ChatID, ui.InternalErrorText)
	}

	role := h.access.ResolveRole(u.UserID)
	token, _, err := h.tokens.Issue(u.UserID, string(role))
	if err != nil {
		return fmt.Errorf("issue api token: %w", err)
	}
	h.logger.Info("api token issued", zap.Int64("user_id", u.UserID), zap.String("role", string(role)))
	return h.reply(ctx, u.ChatID, ui.APIToken(token, role))
}
