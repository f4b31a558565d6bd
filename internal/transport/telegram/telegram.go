// Package telegram mirrors notifications into a Telegram chat.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"gamewatch/internal/transport"
	logx "gamewatch/pkg/logx"
)

const (
	captionLimit = 1024
	textLimit    = 4000
)

type Config struct {
	Token    string
	ChatID   int64
	ThreadID int
	// APIURL overrides the Bot API base URL (self-hosted API server, tests).
	APIURL  string
	Timeout time.Duration
}

// Mirror is a transport.Sink that posts a photo with an HTML caption.
type Mirror struct {
	bot      *tele.Bot
	chat     tele.ChatID
	threadID int
	log      logx.Logger
}

var _ transport.Sink = (*Mirror)(nil)

func New(cfg Config, log logx.Logger) (*Mirror, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	// Offline: the mirror only sends, it never polls, so skip the getMe probe.
	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(cfg.APIURL, "/"),
		Token:   cfg.Token,
		Offline: true,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Mirror{bot: b, chat: tele.ChatID(cfg.ChatID), threadID: cfg.ThreadID, log: log}, nil
}

func (m *Mirror) Name() string { return "telegram" }

func (m *Mirror) Send(ctx context.Context, n transport.Notification) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	opts := &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		ThreadID:              m.threadID,
		DisableWebPagePreview: true,
	}

	var what any
	switch {
	case n.Image != nil:
		what = &tele.Photo{File: tele.FromReader(bytes.NewReader(n.Image.Data)), Caption: Caption(n, captionLimit)}
	case n.ImageURL != "":
		what = &tele.Photo{File: tele.FromURL(n.ImageURL), Caption: Caption(n, captionLimit)}
	default:
		what = Caption(n, textLimit)
	}

	msg, err := m.bot.Send(m.chat, what, opts)
	if err != nil {
		return err
	}
	m.log.Debug("telegram mirror delivered", logx.String("key", n.Key), logx.Int("message_id", msg.ID))
	return nil
}

// Caption renders the notification as Telegram HTML within limit runes.
// The body is shortened first so the title and fields always survive.
func Caption(n transport.Notification, limit int) string {
	title := esc(n.Title)
	if n.URL != "" {
		title = link(n.Title, n.URL)
	}
	head := tag("b", title)

	var fields []htm
	for _, f := range n.Fields {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		fields = append(fields, tag("i", esc(f.Name+":"))+" "+esc(f.Value))
	}
	tail := joinHTML("\n", fields...)

	// Escaping can grow the body; entities are short enough that the
	// caption still fits in practice.
	budget := limit - runeLen(head) - runeLen(tail) - 3
	body := esc(truncRunes(plainMarkdown(n.Description), budget))

	return string(joinHTML("\n", joinHTML("\n\n", head, body), tail))
}

// plainMarkdown drops the Discord bold markers used in the body.
func plainMarkdown(s string) string {
	return strings.ReplaceAll(s, "**", "")
}
