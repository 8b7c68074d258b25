package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// callbackDataLimit is the most callback_data bytes Telegram accepts.
const callbackDataLimit = 64

// InlineButton sends Data back as a callback query, or opens URL when set.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// inlineMarkup lays the buttons out under a message. Empty rows are dropped.
func inlineMarkup(rows [][]InlineButton) (tgbotapi.InlineKeyboardMarkup, error) {
	markup := tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0, len(rows)),
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make([]tgbotapi.InlineKeyboardButton, len(row))
		for j, button := range row {
			switch {
			case button.URL != "":
				line[j] = tgbotapi.NewInlineKeyboardButtonURL(button.Text, button.URL)
			case button.Data == "" || len(button.Data) > callbackDataLimit:
				return tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("button %q in row %d: callback data must be 1..%d bytes", button.Text, i+1, callbackDataLimit)
			default:
				line[j] = tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data)
			}
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, line)
	}
	return markup, nil
}

// menuKeyboard is the resized keyboard that stays under the input field.
func menuKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	markup := tgbotapi.ReplyKeyboardMarkup{
		Keyboard:       make([][]tgbotapi.KeyboardButton, 0, len(rows)),
		ResizeKeyboard: true,
	}
	for _, row := range rows {
		line := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, title := range row {
			if strings.TrimSpace(title) == "" {
				continue
			}
			line = append(line, tgbotapi.NewKeyboardButton(title))
		}
		if len(line) > 0 {
			markup.Keyboard = append(markup.Keyboard, line)
		}
	}
	return markup
}
