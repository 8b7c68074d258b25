package telegram

import (
	"strings"
	"testing"
)

func TestInlineMarkupRows(t *testing.T) {
	markup, err := inlineMarkup([][]InlineButton{
		{{Text: "❤️", Data: "like:2"}, {Text: "👎", Data: "dislike:2"}},
		{},
		{{Text: "Invite", URL: "https://t.me/share/url?url=x"}},
	})
	if err != nil {
		t.Fatalf("build markup: %v", err)
	}
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("empty rows must be dropped, got %d rows", len(markup.InlineKeyboard))
	}
	if data := markup.InlineKeyboard[0][1].CallbackData; data == nil || *data != "dislike:2" {
		t.Fatalf("unexpected callback data: %v", data)
	}
	if url := markup.InlineKeyboard[1][0].URL; url == nil || !strings.HasPrefix(*url, "https://t.me/") {
		t.Fatalf("unexpected url button: %+v", markup.InlineKeyboard[1][0])
	}
}

func TestInlineMarkupRejectsBadCallbackData(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "too long", data: "buy:" + strings.Repeat("9", callbackDataLimit)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := inlineMarkup([][]InlineButton{{{Text: "x", Data: tc.data}}}); err == nil {
				t.Fatalf("expected error for callback data %q", tc.data)
			}
		})
	}

	if _, err := BuildChattable(OutgoingMessage{
		ChatID: 1,
		Text:   "shop",
		Inline: [][]InlineButton{{{Text: "x", Data: strings.Repeat("a", callbackDataLimit+1)}}},
	}); err == nil {
		t.Fatalf("expected send to fail on oversized callback data")
	}
}

func TestMenuKeyboardSkipsBlankTitles(t *testing.T) {
	markup := menuKeyboard([][]string{{"🏠 В меню", " "}, {""}})
	if !markup.ResizeKeyboard || len(markup.Keyboard) != 1 || len(markup.Keyboard[0]) != 1 {
		t.Fatalf("unexpected keyboard: %+v", markup)
	}
	if markup.Keyboard[0][0].Text != "🏠 В меню" {
		t.Fatalf("unexpected button: %+v", markup.Keyboard[0][0])
	}
}
