package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// GenreNSFW marks records whose artwork must not be posted as-is.
const GenreNSFW = "NSFW"

// Record is one game-listing entry.
type Record struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	SubName     string   `json:"subName"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
	DateUpdated string   `json:"dateUpdated"`
	Genres      []string `json:"genres"`
	Link        string   `json:"link,omitempty"`
	CSRinRu     string   `json:"csrinru,omitempty"`

	// Extra keeps keys this model does not interpret.
	Extra map[string]json.RawMessage `json:"-"`
}

var knownKeys = []string{"id", "name", "subName", "description", "thumbnail", "dateUpdated", "genres", "link", "csrinru"}

// required lists keys that must be present. String values other than id,
// name and dateUpdated may be empty.
var required = []string{"id", "name", "subName", "description", "thumbnail", "dateUpdated", "genres"}

// HasGenre reports whether g is one of the record's genres (exact match).
func (r Record) HasGenre(g string) bool { return slices.Contains(r.Genres, g) }

// NSFW reports whether the record carries the NSFW tag.
func (r Record) NSFW() bool { return r.HasGenre(GenreNSFW) }

// Equal compares every field, including unknown keys.
func (r Record) Equal(o Record) bool {
	if r.ID != o.ID || r.Name != o.Name || r.SubName != o.SubName || r.Description != o.Description ||
		r.Thumbnail != o.Thumbnail || r.DateUpdated != o.DateUpdated || r.Link != o.Link || r.CSRinRu != o.CSRinRu {
		return false
	}
	if !slices.Equal(r.Genres, o.Genres) {
		return false
	}
	if len(r.Extra) != len(o.Extra) {
		return false
	}
	for k, a := range r.Extra {
		b, ok := o.Extra[k]
		if !ok || !rawEqual(a, b) {
			return false
		}
	}
	return true
}

func rawEqual(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(knownKeys)+len(r.Extra))
	for k, v := range r.Extra {
		m[k] = v
	}
	m["id"] = r.ID
	m["name"] = r.Name
	m["subName"] = r.SubName
	m["description"] = r.Description
	m["thumbnail"] = r.Thumbnail
	m["dateUpdated"] = r.DateUpdated
	genres := r.Genres
	if genres == nil {
		genres = []string{}
	}
	m["genres"] = genres
	if r.Link != "" {
		m["link"] = r.Link
	}
	if r.CSRinRu != "" {
		m["csrinru"] = r.CSRinRu
	}
	return json.Marshal(m)
}

// decodeRecord decodes and validates one array element.
func decodeRecord(idx int, raw json.RawMessage) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Record{}, &ValidationError{Index: idx, Field: "<record>", Msg: "not a JSON object"}
	}
	if fields == nil {
		return Record{}, &ValidationError{Index: idx, Field: "<record>", Msg: "record is null"}
	}

	var r Record
	idRaw, ok := fields["id"]
	if !ok {
		return Record{}, &ValidationError{Index: idx, Field: "id", Msg: "missing"}
	}
	if err := json.Unmarshal(idRaw, &r.ID); err != nil {
		return Record{}, &ValidationError{Index: idx, Field: "id", Msg: err.Error()}
	}

	fail := func(field, msg string) error {
		return &ValidationError{Index: idx, ID: r.ID.String(), Field: field, Msg: msg}
	}

	for _, k := range required {
		v, ok := fields[k]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return Record{}, fail(k, "missing")
		}
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"name", &r.Name},
		{"subName", &r.SubName},
		{"description", &r.Description},
		{"thumbnail", &r.Thumbnail},
		{"dateUpdated", &r.DateUpdated},
		{"link", &r.Link},
		{"csrinru", &r.CSRinRu},
	}
	for _, s := range strs {
		v, ok := fields[s.key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		if err := json.Unmarshal(v, s.dst); err != nil {
			return Record{}, fail(s.key, "must be a string")
		}
	}
	if strings.TrimSpace(r.Name) == "" {
		return Record{}, fail("name", "empty")
	}
	if strings.TrimSpace(r.DateUpdated) == "" {
		return Record{}, fail("dateUpdated", "empty")
	}

	if err := json.Unmarshal(fields["genres"], &r.Genres); err != nil {
		return Record{}, fail("genres", "must be an array of strings")
	}

	for k, v := range fields {
		if slices.Contains(knownKeys, k) {
			continue
		}
		if r.Extra == nil {
			r.Extra = map[string]json.RawMessage{}
		}
		r.Extra[k] = append(json.RawMessage(nil), v...)
	}
	return r, nil
}

// Validate re-checks a record built in code (e.g. tests or adapters).
func (r Record) Validate() error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = decodeRecord(0, b)
	return err
}
