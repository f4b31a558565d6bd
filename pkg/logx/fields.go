package logx

import (
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

// Field sets one key on an event. Fields apply in order; a repeated key
// keeps the last value.
type Field func(e *zerolog.Event)

func String(k, v string) Field         { return func(e *zerolog.Event) { e.Str(k, v) } }
func Int(k string, v int) Field        { return func(e *zerolog.Event) { e.Int(k, v) } }
func Int64(k string, v int64) Field    { return func(e *zerolog.Event) { e.Int64(k, v) } }
func Bool(k string, v bool) Field      { return func(e *zerolog.Event) { e.Bool(k, v) } }
func Time(k string, v time.Time) Field { return func(e *zerolog.Event) { e.Time(k, v) } }
func Any(k string, v any) Field        { return func(e *zerolog.Event) { e.Interface(k, v) } }

func Duration(k string, v time.Duration) Field {
	return func(e *zerolog.Event) { e.Dur(k, v) }
}

// Err logs err's message with credentials masked. Sink libraries put the
// request URL in their errors, and both webhook and bot URLs carry secrets.
func Err(err error) Field {
	return func(e *zerolog.Event) {
		if err != nil {
			e.Str(zerolog.ErrorFieldName, Redact(err.Error()))
		}
	}
}

// URL logs a URL with credentials masked.
func URL(k, v string) Field { return String(k, Redact(v)) }

var (
	webhookToken = regexp.MustCompile(`(/api(?:/v\d+)?/webhooks/\d+/)[\w-]+`)
	botToken     = regexp.MustCompile(`/bot\d+:[\w-]+`)
)

// Redact masks Discord webhook tokens and Telegram bot tokens in s.
func Redact(s string) string {
	s = webhookToken.ReplaceAllString(s, "${1}***")
	return botToken.ReplaceAllString(s, "/bot***")
}
