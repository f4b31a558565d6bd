package transport

import "context"

// Author is the small header line above a notification.
type Author struct {
	Name    string
	URL     string
	IconURL string
}

// Footer is the line under a notification.
type Footer struct {
	Text    string
	IconURL string
}

// Field is a labelled value shown under the body.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Attachment is a file uploaded together with the message. Sinks that embed
// images refer to it by Filename.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Notification is the sink-neutral form of one outgoing message.
type Notification struct {
	// Key identifies the source record (id@dateUpdated); sinks may log it.
	Key string

	Username  string
	AvatarURL string

	Title       string
	URL         string
	Description string
	Timestamp   string // ISO-8601, passed through unchanged
	Color       int    // 0xRRGGBB

	// ImageURL is a remote image. It is ignored when Image is set.
	ImageURL string
	Image    *Attachment

	Author Author
	Footer Footer
	Fields []Field
}

// Sink delivers notifications to one external endpoint.
type Sink interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}
