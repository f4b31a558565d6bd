package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `[
  {"id": 1, "name": "Alpha", "subName": "Deluxe", "description": "desc", "thumbnail": "https://img/a.png",
   "dateUpdated": "2024-01-01T00:00:00Z", "genres": ["RPG"], "link": "https://dl/a", "size": "4 GB"},
  {"id": "b-2", "name": "Beta", "subName": "", "description": "", "thumbnail": "https://img/b.png",
   "dateUpdated": "2024-01-02", "genres": ["NSFW", "VN"], "csrinru": "https://cs.rin.ru/b"}
]`

func TestDecodeSample(t *testing.T) {
	ds, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, ds, 2)

	a := ds[0]
	assert.Equal(t, "1", a.ID.String())
	assert.True(t, a.ID.Numeric())
	assert.Equal(t, "Alpha", a.Name)
	assert.Equal(t, "https://dl/a", a.Link)
	assert.JSONEq(t, `"4 GB"`, string(a.Extra["size"]))
	assert.False(t, a.NSFW())

	b := ds[1]
	assert.Equal(t, "b-2", b.ID.String())
	assert.False(t, b.ID.Numeric())
	assert.True(t, b.NSFW())
	assert.Equal(t, "https://cs.rin.ru/b", b.CSRinRu)
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"no id", `[{"name":"x"}]`, "id"},
		{"float id", `[{"id":1.5}]`, "id"},
		{"no dateUpdated", `[{"id":1,"name":"x","subName":"","description":"","thumbnail":"","genres":[]}]`, "dateUpdated"},
		{"null genres", `[{"id":1,"name":"x","subName":"","description":"","thumbnail":"","dateUpdated":"d","genres":null}]`, "genres"},
		{"bad genres", `[{"id":1,"name":"x","subName":"","description":"","thumbnail":"","dateUpdated":"d","genres":"RPG"}]`, "genres"},
		{"empty name", `[{"id":1,"name":" ","subName":"","description":"","thumbnail":"","dateUpdated":"d","genres":[]}]`, "name"},
		{"numeric name", `[{"id":1,"name":5,"subName":"","description":"","thumbnail":"","dateUpdated":"d","genres":[]}]`, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, 0, ve.Index)
		})
	}
}

func TestIDKeepsIntegersBeyondInt64(t *testing.T) {
	var id ID
	require.NoError(t, json.Unmarshal([]byte(`18446744073709551616`), &id))
	assert.Equal(t, "18446744073709551616", id.String())
	assert.True(t, id.Numeric())

	b, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551616", string(b))

	require.NoError(t, json.Unmarshal([]byte(`-0`), &id))
	assert.Equal(t, "0", id.String())

	for _, bad := range []string{`1.0`, `1e3`, `true`, `{}`} {
		assert.Error(t, json.Unmarshal([]byte(bad), &id), bad)
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	_, err := Decode(strings.NewReader(`[] []`))
	require.Error(t, err)
}

func TestIDCanonicalFormAcrossKinds(t *testing.T) {
	assert.Equal(t, IntID(7).String(), StringID("7").String())
	assert.NotEqual(t, IntID(7).String(), StringID("07").String())

	b, err := json.Marshal(IntID(7))
	require.NoError(t, err)
	assert.Equal(t, "7", string(b))
	b, err = json.Marshal(StringID("7"))
	require.NoError(t, err)
	assert.Equal(t, `"7"`, string(b))
}

func TestIndexLastSeenWins(t *testing.T) {
	ds := Dataset{
		{ID: IntID(1), Name: "first"},
		{ID: StringID("1"), Name: "second"},
	}
	idx := ds.Index()
	require.Len(t, idx, 1)
	assert.Equal(t, "second", idx["1"].Name)
}

func TestSaveRoundTrip(t *testing.T) {
	ds, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "state", "previous_games.json")
	require.NoError(t, Save(path, ds))

	back, err := Load(path)
	require.NoError(t, err)
	require.Len(t, back, len(ds))
	for i := range ds {
		assert.True(t, ds[i].Equal(back[i]), "record %d differs after round trip", i)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLoadOptionalMissing(t *testing.T) {
	ds, ok, err := LoadOptional(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, ds)
}

func TestEqualSeesExtraKeys(t *testing.T) {
	a := Record{ID: IntID(1), Name: "x", Extra: map[string]json.RawMessage{"size": json.RawMessage(`{"a":1,"b":2}`)}}
	b := a
	b.Extra = map[string]json.RawMessage{"size": json.RawMessage(`{"b":2, "a":1}`)}
	assert.True(t, a.Equal(b))

	b.Extra = map[string]json.RawMessage{"size": json.RawMessage(`{"a":1}`)}
	assert.False(t, a.Equal(b))
}

func TestValidateBuiltRecord(t *testing.T) {
	r := Record{ID: IntID(3), Name: "Gamma", Thumbnail: "https://img/g.png", DateUpdated: "2024-03-03"}
	require.NoError(t, r.Validate())

	r.DateUpdated = ""
	var ve *ValidationError
	require.ErrorAs(t, r.Validate(), &ve)
	assert.Equal(t, "dateUpdated", ve.Field)
}
