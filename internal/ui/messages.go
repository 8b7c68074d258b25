package ui

import (
	"fmt"
	"html"
	"strings"

	"github.com/ave4ge/findateammatebot/internal/infra/telegram"
)

const (
	BannedText          = "❌ Вы забанены!"
	UnknownCommandText  = "❓ Неизвестная команда. Нажмите '" + MenuButton + "'."
	InternalErrorText   = "⚠️ Что-то пошло не так. Попробуйте позже."
	ForbiddenText       = "❌ У вас нет прав для этого"
	UserNotFoundText    = "❌ Пользователь не найден"
	SpecifyUserText     = "❌ Укажите пользователя"
	CancelledText       = "❌ Действие отменено"
	ReferralJoinedText  = "🎉 Вы присоединились по реферальной ссылке! Найдите %d тиммейтов, чтобы ваш друг получил награду."
	StaleButtonText     = "⌛ Эта кнопка устарела"
	InvalidInputText    = "❌ Некорректные данные"
	NoProfileText       = "❌ Сначала создайте анкету!"
	ProfilePendingText  = "⏳ Ваша анкета еще на проверке! Ожидайте верификации."
	ProfileRejectedText = "❌ Ваша анкета отклонена. Пожалуйста, создайте новую."
)

const (
	CreateProfileText    = "📝 <b>Создание анкеты</b>\n\nОтправьте мне ваш никнейм в Roblox:\n\nНажмите '" + MenuButton + "' для отмены"
	EditProfileText      = "📝 <b>Изменение анкеты</b>\n\nОтправьте мне ваш новый никнейм в Roblox:\n\nНажмите '" + MenuButton + "' для отмены"
	AskPhotoText         = "📸 Теперь отправьте фото вашего скина в Roblox:"
	ExpectPhotoText      = "📸 Нужна именно фотография скина. Отправьте фото:"
	AskGameModesText     = "🎮 Теперь введите игровые режимы, в которые вы играете (через запятую):\nПример: BedWars, Murder Mystery 2, Tower of Hell\n\nНажмите '" + MenuButton + "' для отмены"
	ProfileSubmittedText = "✅ Анкета отправлена на модерацию! Ожидайте проверки."
	ProfileApprovedText  = "🎉 Ваша анкета одобрена! Теперь вы можете искать тиммейтов."
	ProfileDeclinedText  = "❌ Ваша анкета отклонена. Пожалуйста, создайте новую анкету."
	ProfileClearedText   = "⚠️ Ваша анкета была очищена администратором. Пожалуйста, создайте новую."
	ProfileInvalidText   = "❌ Анкета заполнена некорректно (ник до 64 символов, режимы до 300). Начните заново через «👤 Моя анкета»."
)

const (
	SupportPromptText    = "📞 Напишите ваше сообщение в поддержку (макс. %d символов):"
	SupportSentText      = "✅ Ваше сообщение отправлено в поддержку!"
	SupportTooLongText   = "❌ Сообщение слишком длинное! Макс. %d символов.\nПопробуйте снова:"
	SupportEmptyText     = "❌ Сообщение не может быть пустым. Попробуйте снова:"
	NothingToAnswerText  = "📭 У пользователя нет открытых обращений"
	ReplyPromptText      = "💌 Введите ответ для пользователя %d:"
	ReplySentText        = "✅ Ответ отправлен пользователю %d"
	ReplyEmptyText       = "❌ Ответ не может быть пустым"
	ReplyFailedText      = "❌ Не удалось доставить ответ пользователю %d, но он сохранен"
	TooFastText          = "⏳ Слишком часто. Попробуйте через %d сек."
	LikeNotePromptText   = "💌 Напишите сообщение для этого игрока (макс. %d символов):"
	LikeNoteTooLongText  = "❌ Сообщение слишком длинное! Макс. %d символов.\nПопробуйте снова:"
	NoCandidatesText     = "😔 Пока нет подходящих тиммейтов. Попробуйте позже!"
	LikersExhaustedText  = "🎉 Вы просмотрели всех, кто вас лайкнул! Теперь будут показаны случайные анкеты."
	DislikeSentText      = "💩 Дизлайк отправлен"
	LikeSentText         = "✅ Лайк отправлен! +%d тимбалов"
	LikeSentNoRewardText = "✅ Лайк отправлен!"
)

func SupportPrompt(maxLength int) string {
	return fmt.Sprintf(SupportPromptText, maxLength)
}

func SupportTooLong(maxLength int) string {
	return fmt.Sprintf(SupportTooLongText, maxLength)
}

func TooFast(retryAfterSec int64) string {
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	return fmt.Sprintf(TooFastText, retryAfterSec)
}

func LikeSent(credited int64) string {
	if credited <= 0 {
		return LikeSentNoRewardText
	}
	return fmt.Sprintf(LikeSentText, credited)
}

// SupportAnswer is the text delivered to the user who opened the ticket.
func SupportAnswer(response string) string {
	return "<b>📨 Ответ от поддержки:</b>\n\n" + html.EscapeString(response)
}

func SupportTicket(userID int64, username, text string) string {
	var b strings.Builder
	b.WriteString("<b>📩 Новое сообщение в поддержку!</b>\n\n")
	fmt.Fprintf(&b, "<b>От:</b> %s\n", handle(username))
	fmt.Fprintf(&b, "<b>ID:</b> %d\n\n", userID)
	fmt.Fprintf(&b, "<b>Сообщение:</b> %s", html.EscapeString(text))
	return b.String()
}

func SupportTicketKeyboard(userID int64) [][]telegram.InlineButton {
	return [][]telegram.InlineButton{
		{{Text: "💌 Ответить", Data: target(ActionReply, userID)}},
	}
}

func handle(username string) string {
	name := strings.TrimPrefix(strings.TrimSpace(username), "@")
	if name == "" {
		return "нет"
	}
	return "@" + html.EscapeString(name)
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "нет"
	}
	return html.EscapeString(value)
}

// excerpt cuts value to limit runes and marks the cut with an ellipsis.
func excerpt(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
