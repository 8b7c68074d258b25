package ui

import (
	"fmt"
	"html"
	"strings"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
	"github.com/ave4ge/findateammatebot/internal/infra/telegram"
)

const recentMessageExcerpt = 50

func StatusLabel(status enums.Verification) string {
	switch status {
	case enums.VerificationPending:
		return "🟡 На проверке"
	case enums.VerificationApproved:
		return "✅ Одобрено"
	case enums.VerificationRejected:
		return "❌ Отклонено"
	default:
		return "—"
	}
}

func RenderMyProfile(overview model.ProfileOverview, maxWarnings int) string {
	p := overview.Participant

	var b strings.Builder
	b.WriteString("<b>👤 Ваша анкета:</b>\n\n")
	fmt.Fprintf(&b, "<b>📛 Никнейм:</b> %s\n", html.EscapeString(p.Nickname))
	fmt.Fprintf(&b, "<b>🎮 Режимы:</b> %s\n", html.EscapeString(p.GameModes))
	fmt.Fprintf(&b, "<b>📊 Статус:</b> %s\n", StatusLabel(p.Verification))
	fmt.Fprintf(&b, "<b>⭐ Лайков:</b> %d\n", overview.LikesReceived)
	fmt.Fprintf(&b, "<b>💰 Тимбалов:</b> %d\n", p.Balance)
	fmt.Fprintf(&b, "<b>🔍 Найдено тиммейтов:</b> %d\n", p.MatchesFound)
	fmt.Fprintf(&b, "<b>⚠️ Предупреждений:</b> %d/%d\n", p.Warnings, maxWarnings)

	if len(overview.RecentLikes) > 0 {
		b.WriteString("\n<b>📬 Последние сообщения:</b>\n")
		for _, like := range overview.RecentLikes {
			fmt.Fprintf(&b, "\n├ <b>От:</b> %s\n", handle(like.Username))
			fmt.Fprintf(&b, "├ <b>Тимбалов:</b> %d\n", like.Balance)
			fmt.Fprintf(&b, "├ <b>Сообщение:</b> %s\n", orDash(excerpt(like.Message, recentMessageExcerpt)))
			fmt.Fprintf(&b, "└ <b>Время:</b> %s\n", like.CreatedAt.Format("02.01 15:04"))
		}
	}

	return b.String()
}

func MyProfileKeyboard(p model.Participant) [][]telegram.InlineButton {
	rows := make([][]telegram.InlineButton, 0, 2)
	if p.Verification != enums.VerificationApproved {
		rows = append(rows, []telegram.InlineButton{{Text: "✏️ Изменить анкету", Data: Action{Kind: ActionEditProfile}.Encode()}})
	}
	rows = append(rows, BackToMenu()...)
	return rows
}

// PendingProfile is the card verifiers receive for a submitted profile.
func PendingProfile(p model.Participant) string {
	var b strings.Builder
	b.WriteString("<b>📝 Новая анкета на проверку!</b>\n\n")
	fmt.Fprintf(&b, "<b>Пользователь:</b> %s\n", handle(p.Username))
	fmt.Fprintf(&b, "<b>ID:</b> %d\n", p.UserID)
	fmt.Fprintf(&b, "<b>Ник в Roblox:</b> %s\n", html.EscapeString(p.Nickname))
	fmt.Fprintf(&b, "<b>Режимы:</b> %s", html.EscapeString(p.GameModes))
	return b.String()
}

func ReviewKeyboard(userID int64) [][]telegram.InlineButton {
	return [][]telegram.InlineButton{{
		{Text: "✅ Одобрить", Data: target(ActionApprove, userID)},
		{Text: "❌ Отклонить", Data: target(ActionReject, userID)},
	}}
}

func ReviewDone(userID int64, status enums.Verification) string {
	if status == enums.VerificationApproved {
		return fmt.Sprintf("✅ Анкета пользователя %d одобрена", userID)
	}
	return fmt.Sprintf("❌ Анкета пользователя %d отклонена", userID)
}
