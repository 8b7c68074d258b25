package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxDownloadSize = 20 << 20

type Bot struct {
	api         *tgbotapi.BotAPI
	httpClient  *http.Client
	pollTimeout int
}

type CommandUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Command  string
	Args     string
	// ReplyToUserID is the author of the message the command replies to.
	ReplyToUserID   int64
	ReplyToUsername string
}

type TextUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Text     string
}

type PhotoUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	FileID   string
	Caption  string
}

type CallbackUpdate struct {
	CallbackID string
	ChatID     int64
	MessageID  int
	UserID     int64
	Username   string
	Data       string
}

type Handlers struct {
	OnCommand  func(context.Context, CommandUpdate) error
	OnText     func(context.Context, TextUpdate) error
	OnPhoto    func(context.Context, PhotoUpdate) error
	OnCallback func(context.Context, CallbackUpdate) error
}

// OutgoingMessage is a text or photo message with optional keyboards. Text is
// sent as HTML. A photo is taken from PhotoFileID or, when empty, PhotoBytes.
type OutgoingMessage struct {
	ChatID      int64
	Text        string
	PhotoFileID string
	PhotoBytes  []byte
	PhotoName   string
	Inline      [][]InlineButton
	Reply       [][]string
}

func NewBot(token string, pollTimeout int) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}

	return &Bot{
		api: api,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		pollTimeout: pollTimeout,
	}, nil
}

func (b *Bot) Username() string {
	if b == nil || b.api == nil {
		return ""
	}
	return b.api.Self.UserName
}

func (b *Bot) Listen(ctx context.Context, handlers Handlers) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := Dispatch(ctx, update, handlers); err != nil {
				return err
			}
		}
	}
}

// Dispatch routes one raw update to the matching handler. Updates without a
// sender or of unsupported kinds are ignored.
func Dispatch(ctx context.Context, update tgbotapi.Update, handlers Handlers) error {
	if msg := update.Message; msg != nil && msg.From != nil && msg.Chat != nil {
		switch {
		case len(msg.Photo) > 0:
			if handlers.OnPhoto == nil {
				return nil
			}
			largest := msg.Photo[0]
			for _, size := range msg.Photo[1:] {
				if size.Width*size.Height > largest.Width*largest.Height {
					largest = size
				}
			}
			return handlers.OnPhoto(ctx, PhotoUpdate{
				ChatID:   msg.Chat.ID,
				UserID:   msg.From.ID,
				Username: msg.From.UserName,
				FileID:   largest.FileID,
				Caption:  msg.Caption,
			})
		case msg.IsCommand():
			if handlers.OnCommand == nil {
				return nil
			}
			cmd := CommandUpdate{
				ChatID:   msg.Chat.ID,
				UserID:   msg.From.ID,
				Username: msg.From.UserName,
				Command:  strings.ToLower(msg.Command()),
				Args:     strings.TrimSpace(msg.CommandArguments()),
			}
			if reply := msg.ReplyToMessage; reply != nil && reply.From != nil {
				cmd.ReplyToUserID = reply.From.ID
				cmd.ReplyToUsername = reply.From.UserName
			}
			return handlers.OnCommand(ctx, cmd)
		default:
			text := strings.TrimSpace(msg.Text)
			if text == "" || handlers.OnText == nil {
				return nil
			}
			return handlers.OnText(ctx, TextUpdate{
				ChatID:   msg.Chat.ID,
				UserID:   msg.From.ID,
				Username: msg.From.UserName,
				Text:     text,
			})
		}
	}

	if cb := update.CallbackQuery; cb != nil && cb.From != nil && handlers.OnCallback != nil {
		out := CallbackUpdate{
			CallbackID: cb.ID,
			UserID:     cb.From.ID,
			Username:   cb.From.UserName,
			Data:       cb.Data,
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			out.ChatID = cb.Message.Chat.ID
			out.MessageID = cb.Message.MessageID
		}
		if out.ChatID == 0 {
			out.ChatID = cb.From.ID
		}
		return handlers.OnCallback(ctx, out)
	}

	return nil
}

func (b *Bot) Send(ctx context.Context, msg OutgoingMessage) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	chattable, err := BuildChattable(msg)
	if err != nil {
		return err
	}
	if _, err := b.api.Send(chattable); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return nil
}

// BuildChattable converts msg into the tgbotapi request that delivers it.
func BuildChattable(msg OutgoingMessage) (tgbotapi.Chattable, error) {
	if msg.ChatID == 0 {
		return nil, fmt.Errorf("chat id is required")
	}

	var markup interface{}
	switch {
	case len(msg.Inline) > 0:
		inline, err := inlineMarkup(msg.Inline)
		if err != nil {
			return nil, err
		}
		markup = inline
	case len(msg.Reply) > 0:
		markup = menuKeyboard(msg.Reply)
	}

	var photo tgbotapi.RequestFileData
	switch {
	case strings.TrimSpace(msg.PhotoFileID) != "":
		photo = tgbotapi.FileID(msg.PhotoFileID)
	case len(msg.PhotoBytes) > 0:
		name := msg.PhotoName
		if strings.TrimSpace(name) == "" {
			name = "photo.png"
		}
		photo = tgbotapi.FileBytes{Name: name, Bytes: msg.PhotoBytes}
	}

	if photo != nil {
		out := tgbotapi.NewPhoto(msg.ChatID, photo)
		out.Caption = msg.Text
		out.ParseMode = tgbotapi.ModeHTML
		if markup != nil {
			out.ReplyMarkup = markup
		}
		return out, nil
	}

	if strings.TrimSpace(msg.Text) == "" {
		return nil, fmt.Errorf("message text is required")
	}
	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true
	if markup != nil {
		out.ReplyMarkup = markup
	}
	return out, nil
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(callbackID) == "" {
		return nil
	}

	cfg := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	if b == nil || b.api == nil {
		return nil, fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("file id is required")
	}

	tgFile, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get telegram file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tgFile.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("create file request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download telegram file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected telegram file status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("read telegram file: %w", err)
	}
	return body, nil
}
