package notifier

import (
	"encoding/json"
	"hash/fnv"
	"strconv"
	"strings"

	"gamewatch/internal/catalog"
	"gamewatch/internal/changes"
	"gamewatch/internal/transport"
)

// NSFWFilename is the attachment name of obscured artwork.
const NSFWFilename = "nsfw.jpg"

// DedupKey identifies one revision of a record as the policy sees it:
// id@dateUpdated for the timestamp policy, id#<content hash> for
// whole-record so an edit that keeps dateUpdated is a new revision.
func DedupKey(r catalog.Record, p changes.Policy) string {
	if p == changes.PolicyWholeRecord {
		return r.ID.String() + "#" + contentHash(r)
	}
	return r.ID.String() + "@" + r.DateUpdated
}

func contentHash(r catalog.Record) string {
	b, err := json.Marshal(r)
	if err != nil {
		// Not reachable for decoded records; fall back to the timestamp.
		return r.DateUpdated
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return strconv.FormatUint(h.Sum64(), 16)
}

// Body is the embed description: the bold subtitle, a blank line, then the
// description. The subtitle line is dropped when empty.
func Body(r catalog.Record) string {
	sub := strings.TrimSpace(r.SubName)
	if sub == "" {
		return r.Description
	}
	return "**" + sub + "**\n\n" + r.Description
}

// BuildNotification renders a record without touching the network: colour
// stays 0 and the image is the remote thumbnail.
func BuildNotification(r catalog.Record, b Branding) transport.Notification {
	n := transport.Notification{
		Key:         DedupKey(r, changes.PolicyTimestamp),
		Username:    b.Username,
		AvatarURL:   b.AvatarURL,
		Title:       r.Name,
		Description: Body(r),
		Timestamp:   r.DateUpdated,
		ImageURL:    strings.TrimSpace(r.Thumbnail),
		Author: transport.Author{
			Name:    b.AuthorName,
			URL:     b.AuthorURL,
			IconURL: b.AuthorIconURL,
		},
		Footer: transport.Footer{
			Text:    b.FooterText,
			IconURL: b.FooterIconURL,
		},
	}
	if b.LinkBase != "" {
		n.URL = b.LinkBase + r.ID.String()
	}

	if len(r.Genres) > 0 {
		n.Fields = append(n.Fields, transport.Field{Name: "Genres", Value: strings.Join(r.Genres, ", "), Inline: true})
	}
	if v := strings.TrimSpace(r.CSRinRu); v != "" {
		n.Fields = append(n.Fields, transport.Field{Name: "CS.RIN.RU", Value: v, Inline: true})
	}
	if v := strings.TrimSpace(r.Link); v != "" {
		n.Fields = append(n.Fields, transport.Field{Name: "Link", Value: v})
	}
	return n
}
