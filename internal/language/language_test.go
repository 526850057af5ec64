package language

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTable(t *testing.T) {
	want := []struct {
		value string
		label string
	}{
		{"plaintext", "Plain Text"},
		{"javascript", "JavaScript"},
		{"python", "Python"},
		{"java", "Java"},
		{"cpp", "C++"},
		{"csharp", "C#"},
		{"php", "PHP"},
		{"ruby", "Ruby"},
		{"go", "Go"},
		{"rust", "Rust"},
	}

	entries := All()
	require.Len(t, entries, len(want))
	for i, w := range want {
		assert.Equal(t, w.value, entries[i].Tag.String(), "entry %d", i)
		assert.Equal(t, w.label, entries[i].Label, "entry %d", i)
	}
}

func TestDefaultIsZeroValue(t *testing.T) {
	var tag Tag
	assert.Equal(t, PlainText, tag)
	assert.Equal(t, Default, tag)
	assert.Equal(t, "plaintext", tag.String())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Tag
		wantErr bool
	}{
		{"go", "go", Go, false},
		{"cpp", "cpp", Cpp, false},
		{"csharp", "csharp", CSharp, false},
		{"label is not a value", "C++", Tag{}, true},
		{"case sensitive", "Go", Tag{}, true},
		{"no trimming", " go", Tag{}, true},
		{"empty", "", Tag{}, true},
		{"unknown", "haskell", Tag{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				var unknown *UnknownError
				require.ErrorAs(t, err, &unknown)
				assert.Equal(t, tt.input, unknown.Value)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustParsePanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { MustParse("cobol") })
	assert.Equal(t, Rust, MustParse("rust"))
}

func TestTagJSON(t *testing.T) {
	type payload struct {
		Language Tag `json:"language"`
	}

	b, err := json.Marshal(payload{Language: Cpp})
	require.NoError(t, err)
	assert.JSONEq(t, `{"language":"cpp"}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"language":"ruby"}`), &p))
	assert.Equal(t, Ruby, p.Language)

	assert.Error(t, json.Unmarshal([]byte(`{"language":"perl"}`), &p))
}

func TestEntryEncoding(t *testing.T) {
	b, err := json.Marshal(All()[4])
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"cpp","label":"C++"}`, string(b))

	out, err := yaml.Marshal(All()[5])
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, map[string]string{"value": "csharp", "label": "C#"}, decoded)
}
