package ui

import (
	"fmt"
	"html"
	"strings"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
)

const (
	GiveUsageText       = "❌ Использование: /give <количество> [@username или id]"
	BanUsageText        = "❌ Использование: /ban [@username или id]"
	UnbanUsageText      = "❌ Использование: /unban [@username или id]"
	WarnUsageText       = "❌ Ответьте на сообщение пользователя или используйте: /warn [@username или id]"
	ClearUsageText      = "❌ Ответьте на сообщение пользователя или используйте: /clear [@username или id]"
	ClearPointUsageText = "❌ Использование: /clearpoint [@username или id]"
	NoUsersText         = "📭 Пользователей нет"
	NoLeadersText       = "📭 Нет пользователей в рейтинге"
	NoPendingText       = "📭 Нет анкет на проверке"
)

func RenderStats(stats model.Stats) string {
	var b strings.Builder
	b.WriteString("<b>📊 Статистика бота:</b>\n\n")
	fmt.Fprintf(&b, "👥 Всего пользователей: %d\n", stats.Total)
	fmt.Fprintf(&b, "✅ Верифицировано: %d\n", stats.Verified)
	fmt.Fprintf(&b, "⏳ На проверке: %d\n", stats.Pending)
	fmt.Fprintf(&b, "❌ Забанено: %d\n", stats.Banned)
	fmt.Fprintf(&b, "👍 Всего лайков: %d\n", stats.Likes)
	fmt.Fprintf(&b, "💰 Всего тимбалов в системе: %d\n", stats.TotalBalance)
	return b.String()
}

func RenderUsers(items []model.Participant, total int64) string {
	if len(items) == 0 {
		return NoUsersText
	}

	var b strings.Builder
	b.WriteString("<b>👥 Список пользователей:</b>\n\n")
	for _, p := range items {
		fmt.Fprintf(&b, "%s ID: %d | %s\n", userMark(p), p.UserID, handle(p.Username))
		fmt.Fprintf(&b, "   Ник: %s | Тимбалы: %d\n\n", orDash(p.Nickname), p.Balance)
	}
	if rest := total - int64(len(items)); rest > 0 {
		fmt.Fprintf(&b, "\n... и еще %d пользователей", rest)
	}
	return b.String()
}

func userMark(p model.Participant) string {
	switch {
	case p.Banned:
		return "❌"
	case p.Verification == enums.VerificationApproved:
		return "✅"
	case p.Verification == enums.VerificationPending:
		return "⏳"
	default:
		return "🚫"
	}
}

func RenderLeaders(items []model.Participant) string {
	if len(items) == 0 {
		return NoLeadersText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>🏆 Топ-%d игроков по тимбалам:</b>\n\n", len(items))
	for i, p := range items {
		fmt.Fprintf(&b, "%s <b>%s</b>\n", medal(i+1), handle(p.Username))
		fmt.Fprintf(&b, "   <b>Ник в Roblox:</b> %s\n", orDash(p.Nickname))
		fmt.Fprintf(&b, "   <b>Тимбалов:</b> %d\n", p.Balance)
		fmt.Fprintf(&b, "   <b>ID:</b> %d\n\n", p.UserID)
	}
	return b.String()
}

func medal(place int) string {
	switch place {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", place)
	}
}

func PendingHeader(total int64) string {
	return fmt.Sprintf("<b>📋 Анкеты на проверке:</b> %d", total)
}

func PendingRest(rest int64) string {
	return fmt.Sprintf("📋 ... и еще %d анкет на проверке", rest)
}

func PendingItem(index int, p model.Participant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%d. %s</b>\n", index, handle(p.Username))
	fmt.Fprintf(&b, "   ID: %d\n", p.UserID)
	fmt.Fprintf(&b, "   Ник: %s\n", html.EscapeString(p.Nickname))
	fmt.Fprintf(&b, "   Режимы: %s", html.EscapeString(p.GameModes))
	return b.String()
}

func Granted(targetID, amount int64) string {
	return fmt.Sprintf("✅ Пользователю %d выдано %d тимбалов", targetID, amount)
}

func GrantedNotice(amount int64) string {
	return fmt.Sprintf("🎉 Администратор выдал вам %d тимбалов!", amount)
}

func Banned(targetID int64) string {
	return fmt.Sprintf("✅ Пользователь %d забанен", targetID)
}

func Unbanned(targetID int64) string {
	return fmt.Sprintf("✅ Пользователь %d разбанен", targetID)
}

func Warned(targetID int64, warnings, max int, banned bool) string {
	if banned {
		return fmt.Sprintf("⚠️ Пользователь %d получил предупреждение (%d/%d). Достигнут лимит - забанен!", targetID, warnings, max)
	}
	return fmt.Sprintf("⚠️ Пользователь %d получил предупреждение (%d/%d)", targetID, warnings, max)
}

func WarnedNotice(warnings, max int, banned bool) string {
	if banned {
		return fmt.Sprintf("❌ Вы получили %d/%d предупреждений и были забанены!", warnings, max)
	}
	return fmt.Sprintf("⚠️ Вы получили предупреждение (%d/%d)", warnings, max)
}

func ProfileCleared(targetID int64) string {
	return fmt.Sprintf("✅ Анкета пользователя %d очищена", targetID)
}

func BalanceCleared(targetID int64) string {
	return fmt.Sprintf("✅ Тимбалы пользователя %d очищены", targetID)
}

func APIToken(token string, role enums.Role) string {
	return fmt.Sprintf("🔑 Токен для admin API (%s):\n\n<code>%s</code>", role, html.EscapeString(token))
}
