package discord

import (
	"strings"
	"unicode/utf8"

	"gamewatch/internal/transport"
)

// Discord embed limits.
const (
	maxUsername    = 80
	maxTitle       = 256
	maxDescription = 4096
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxFields      = 25
	maxFooter      = 2048
	maxAuthor      = 256
	// maxEmbedTotal caps title, description, field names and values,
	// footer text and author name together.
	maxEmbedTotal = 6000
)

// Payload is the JSON body of an execute-webhook call.
type Payload struct {
	Content     string       `json:"content"`
	TTS         bool         `json:"tts"`
	Username    string       `json:"username,omitempty"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
	Embeds      []Embed      `json:"embeds"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Color       int          `json:"color"`
	Image       *EmbedImage  `json:"image,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Attachment describes an uploaded file inside payload_json.
type Attachment struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`
}

// AttachmentURL is how an embed refers to an uploaded file.
func AttachmentURL(filename string) string { return "attachment://" + filename }

// NewPayload renders a notification as a single-embed webhook body.
func NewPayload(n transport.Notification) Payload {
	e := Embed{
		Title:       clip(n.Title, maxTitle),
		Description: clip(n.Description, maxDescription),
		URL:         n.URL,
		Timestamp:   n.Timestamp,
		Color:       n.Color,
	}
	switch {
	case n.Image != nil:
		e.Image = &EmbedImage{URL: AttachmentURL(n.Image.Filename)}
	case n.ImageURL != "":
		e.Image = &EmbedImage{URL: n.ImageURL}
	}
	if n.Footer.Text != "" {
		e.Footer = &EmbedFooter{Text: clip(n.Footer.Text, maxFooter), IconURL: n.Footer.IconURL}
	}
	if n.Author.Name != "" {
		e.Author = &EmbedAuthor{Name: clip(n.Author.Name, maxAuthor), URL: n.Author.URL, IconURL: n.Author.IconURL}
	}
	for _, f := range n.Fields {
		if len(e.Fields) == maxFields {
			break
		}
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		e.Fields = append(e.Fields, EmbedField{
			Name:   clip(f.Name, maxFieldName),
			Value:  clip(f.Value, maxFieldValue),
			Inline: f.Inline,
		})
	}

	fitTotal(&e)

	p := Payload{
		Username:  clip(n.Username, maxUsername),
		AvatarURL: n.AvatarURL,
		Embeds:    []Embed{e},
	}
	if n.Image != nil {
		p.Attachments = []Attachment{{ID: 0, Filename: n.Image.Filename}}
	}
	return p
}

// fitTotal keeps the embed within maxEmbedTotal. The description gives way
// first; fields are dropped from the end only if that is not enough.
func fitTotal(e *Embed) {
	over := embedLen(e) - maxEmbedTotal
	if over <= 0 {
		return
	}
	if d := utf8.RuneCountInString(e.Description); d > 0 {
		e.Description = clip(e.Description, d-over)
		over = embedLen(e) - maxEmbedTotal
	}
	for over > 0 && len(e.Fields) > 0 {
		e.Fields = e.Fields[:len(e.Fields)-1]
		over = embedLen(e) - maxEmbedTotal
	}
}

func embedLen(e *Embed) int {
	n := utf8.RuneCountInString(e.Title) + utf8.RuneCountInString(e.Description)
	for _, f := range e.Fields {
		n += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	if e.Footer != nil {
		n += utf8.RuneCountInString(e.Footer.Text)
	}
	if e.Author != nil {
		n += utf8.RuneCountInString(e.Author.Name)
	}
	return n
}

// clip shortens s to at most n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
