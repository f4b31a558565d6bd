// Package discord delivers notifications through a Discord execute-webhook
// endpoint.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"gamewatch/internal/transport"
	logx "gamewatch/pkg/logx"
)

var ErrNoWebhook = errors.New("discord webhook url is empty")

// HTTPError is returned for any non-2xx webhook response.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("discord webhook: http %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("discord webhook: http %d", e.Status)
}

type Config struct {
	WebhookURL string
	// ThreadID posts into a forum/thread channel when set.
	ThreadID string
	Timeout  time.Duration
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Webhook is a transport.Sink for one Discord webhook.
type Webhook struct {
	endpoint string
	client   *http.Client
	log      logx.Logger
}

var _ transport.Sink = (*Webhook)(nil)

func New(cfg Config, log logx.Logger) (*Webhook, error) {
	raw := strings.TrimSpace(cfg.WebhookURL)
	if raw == "" {
		return nil, ErrNoWebhook
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("discord webhook url is invalid")
	}
	if t := strings.TrimSpace(cfg.ThreadID); t != "" {
		q := u.Query()
		q.Set("thread_id", t)
		u.RawQuery = q.Encode()
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Webhook{endpoint: u.String(), client: client, log: log}, nil
}

func (w *Webhook) Name() string { return "discord" }

// Send posts one notification. It is never retried.
func (w *Webhook) Send(ctx context.Context, n transport.Notification) error {
	body, contentType, err := encode(NewPayload(n), n.Image)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := w.client.Do(req)
	if err != nil {
		// The URL carries the webhook token; keep it out of logs.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	w.log.Debug("webhook delivered",
		logx.String("key", n.Key),
		logx.Int("status", resp.StatusCode),
		logx.Bool("attachment", n.Image != nil),
		logx.Duration("took", time.Since(start)),
	)
	return nil
}

// encode returns a JSON body, or a multipart body when a file is attached.
func encode(p Payload, file *transport.Attachment) ([]byte, string, error) {
	js, err := json.Marshal(p)
	if err != nil {
		return nil, "", fmt.Errorf("encode webhook payload: %w", err)
	}
	if file == nil {
		return js, "application/json", nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("payload_json", string(js)); err != nil {
		return nil, "", err
	}

	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[0]"; filename=%q`, file.Filename))
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
