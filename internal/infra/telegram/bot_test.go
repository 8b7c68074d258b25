package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func newMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: "nova"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
}

func TestDispatchCommandWithReply(t *testing.T) {
	msg := newMessage(10, "/give 50")
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}}
	msg.ReplyToMessage = newMessage(20, "hi")

	var got CommandUpdate
	err := Dispatch(context.Background(), tgbotapi.Update{Message: msg}, Handlers{
		OnCommand: func(_ context.Context, u CommandUpdate) error {
			got = u
			return nil
		},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got.Command != "give" || got.Args != "50" || got.ReplyToUserID != 20 {
		t.Fatalf("unexpected command update: %+v", got)
	}
}

func TestDispatchPicksLargestPhoto(t *testing.T) {
	msg := newMessage(10, "")
	msg.Photo = []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "large", Width: 1280, Height: 1280},
		{FileID: "medium", Width: 320, Height: 320},
	}

	var got PhotoUpdate
	err := Dispatch(context.Background(), tgbotapi.Update{Message: msg}, Handlers{
		OnPhoto: func(_ context.Context, u PhotoUpdate) error {
			got = u
			return nil
		},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got.FileID != "large" {
		t.Fatalf("unexpected file id: got %s want %s", got.FileID, "large")
	}
}

func TestDispatchTextAndCallback(t *testing.T) {
	var (
		text     TextUpdate
		callback CallbackUpdate
	)
	handlers := Handlers{
		OnText: func(_ context.Context, u TextUpdate) error {
			text = u
			return nil
		},
		OnCallback: func(_ context.Context, u CallbackUpdate) error {
			callback = u
			return nil
		},
	}

	if err := Dispatch(context.Background(), tgbotapi.Update{Message: newMessage(3, "  привет ")}, handlers); err != nil {
		t.Fatalf("dispatch text: %v", err)
	}
	if text.Text != "привет" || text.ChatID != 3 {
		t.Fatalf("unexpected text update: %+v", text)
	}

	cb := &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 4},
		Message: newMessage(4, "card"),
		Data:    "like:7",
	}
	if err := Dispatch(context.Background(), tgbotapi.Update{CallbackQuery: cb}, handlers); err != nil {
		t.Fatalf("dispatch callback: %v", err)
	}
	if callback.Data != "like:7" || callback.ChatID != 4 || callback.CallbackID != "cb-1" {
		t.Fatalf("unexpected callback update: %+v", callback)
	}
}

func TestBuildChattable(t *testing.T) {
	photo, err := BuildChattable(OutgoingMessage{
		ChatID:      1,
		Text:        "<b>card</b>",
		PhotoFileID: "file-1",
		Inline:      [][]InlineButton{{{Text: "❤️", Data: "like:2"}}},
	})
	if err != nil {
		t.Fatalf("build photo: %v", err)
	}
	cfg, ok := photo.(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("expected PhotoConfig, got %T", photo)
	}
	if cfg.Caption != "<b>card</b>" || cfg.ParseMode != tgbotapi.ModeHTML {
		t.Fatalf("unexpected photo config: %+v", cfg)
	}

	text, err := BuildChattable(OutgoingMessage{ChatID: 1, Text: "menu", Reply: [][]string{{"🏠 В меню"}}})
	if err != nil {
		t.Fatalf("build text: %v", err)
	}
	msg, ok := text.(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected MessageConfig, got %T", text)
	}
	if _, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup); !ok {
		t.Fatalf("expected reply keyboard, got %T", msg.ReplyMarkup)
	}

	if _, err := BuildChattable(OutgoingMessage{ChatID: 1}); err == nil {
		t.Fatalf("expected error for empty message")
	}
}
