package ui

import (
	"fmt"
	"html"
	"strings"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
	"github.com/ave4ge/findateammatebot/internal/infra/telegram"
)

func CandidateCard(p model.Participant, mode enums.MatchMode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>👤 Никнейм:</b> %s\n", html.EscapeString(p.Nickname))
	fmt.Fprintf(&b, "<b>🎮 Режимы:</b> %s\n\n", html.EscapeString(p.GameModes))
	if mode == enums.MatchModeLikers {
		b.WriteString("<b>💡 Этот пользователь лайкнул вашу анкету!</b>\n")
	}
	fmt.Fprintf(&b, "<b>⭐ Найдено тиммейтов:</b> %d", p.MatchesFound)
	return b.String()
}

func CandidateKeyboard(userID int64) [][]telegram.InlineButton {
	return [][]telegram.InlineButton{
		{
			{Text: "❤️ Лайк", Data: target(ActionLike, userID)},
			{Text: "💩 Дизлайк", Data: target(ActionDislike, userID)},
		},
		{{Text: "💌 Лайк с сообщением", Data: target(ActionLikeNote, userID)}},
		{{Text: "🔙 В меню", Data: Action{Kind: ActionMenu}.Encode()}},
	}
}

func LikedNotice(from model.Participant, message string) string {
	var b strings.Builder
	b.WriteString("💖 <b>Вас лайкнули!</b>\n\n")
	fmt.Fprintf(&b, "Пользователь <b>%s</b> оценил вашу анкету!\n", handle(from.Username))
	if strings.TrimSpace(message) != "" {
		fmt.Fprintf(&b, "\n<b>💌 Сообщение:</b> %s\n", html.EscapeString(message))
	}
	b.WriteString("\nЗагляните в «🤝 Найденные тиммейты», чтобы связаться.")
	return b.String()
}

func MutualNotice(other model.Participant) string {
	return fmt.Sprintf(
		"🤝 <b>Взаимный лайк!</b>\n\nВы и <b>%s</b> (%s) понравились друг другу.\n%s",
		handle(other.Username),
		html.EscapeString(other.Nickname),
		contactLink(other.UserID),
	)
}

func RenderFoundTeammates(likes []model.IncomingLike) string {
	if len(likes) == 0 {
		return "😔 Пока вас никто не лайкнул"
	}

	var b strings.Builder
	b.WriteString("<b>🤝 Пользователи, которые вас лайкнули:</b>\n")
	for i, like := range likes {
		fmt.Fprintf(&b, "\n<b>%d. %s</b>\n", i+1, handle(like.Username))
		fmt.Fprintf(&b, "📛 Ник в Roblox: %s\n", orDash(like.Nickname))
		fmt.Fprintf(&b, "🎮 Режимы: %s\n", orDash(like.GameModes))
		if strings.TrimSpace(like.Message) != "" {
			fmt.Fprintf(&b, "💌 Сообщение: %s\n", html.EscapeString(like.Message))
		}
		b.WriteString(contactLink(like.ActorID) + "\n")
	}
	return b.String()
}

func ReferralCompleted(completion model.ReferralCompletion) string {
	return fmt.Sprintf(
		"🎉 Ваш друг (ID %d) нашел своих тиммейтов! Вам начислено %d тимбалов.",
		completion.InviteeID,
		completion.Reward,
	)
}

func contactLink(userID int64) string {
	return fmt.Sprintf("<a href='tg://user?id=%d'>Написать в Telegram</a>", userID)
}
