package profile

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSettings = Settings{
	SaltKey:           "c2FsdA==",
	DefaultIterations: "10000",
	CustomOverrides:   `{"example.com":"|5000||","google.com":"||16|0"}`,
}

func TestExport_Golden(t *testing.T) {
	out, err := Export(testSettings)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export", out)
}

func TestExportParse_RoundTrip(t *testing.T) {
	out, err := Export(testSettings)
	require.NoError(t, err)

	got, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, testSettings, got)

	n, err := got.Iterations()
	require.NoError(t, err)
	assert.Equal(t, uint32(10000), n)
}

func TestParse_AcceptsCommentsAndTrailingCommas(t *testing.T) {
	doc := []byte(`{
		// exported from laptop
		"profiles": [
			{
				"name": "root",
				"settings": {
					"saltKey": "abc",
					"defaultIterations": "5000",
					"customOverrides": "{}", /* none yet */
				},
			},
		],
	}`)

	got, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.SaltKey)
	assert.Equal(t, "5000", got.DefaultIterations)
	assert.Equal(t, "{}", got.CustomOverrides)
}

func TestParse_EmptyOverridesAllowed(t *testing.T) {
	doc := []byte(`{"profiles":[{"name":"root","settings":{"saltKey":"abc","defaultIterations":"1","customOverrides":""}}]}`)
	got, err := Parse(doc)
	require.NoError(t, err)
	assert.Empty(t, got.CustomOverrides)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ``},
		{"unterminated", `{"profiles": [`},
		{"not an object", `[1, 2]`},
		{"no profiles", `{}`},
		{"zero profiles", `{"profiles":[]}`},
		{"two profiles", `{"profiles":[
			{"name":"root","settings":{"saltKey":"a","defaultIterations":"1","customOverrides":"{}"}},
			{"name":"work","settings":{"saltKey":"b","defaultIterations":"1","customOverrides":"{}"}}]}`},
		{"extra profile key", `{"profiles":[{"name":"root","color":"red","settings":{"saltKey":"a","defaultIterations":"1","customOverrides":"{}"}}]}`},
		{"extra settings key", `{"profiles":[{"name":"root","settings":{"saltKey":"a","defaultIterations":"1","customOverrides":"{}","theme":"dark"}}]}`},
		{"extra top-level key", `{"version":2,"profiles":[{"name":"root","settings":{"saltKey":"a","defaultIterations":"1","customOverrides":"{}"}}]}`},
		{"missing salt key", `{"profiles":[{"name":"root","settings":{"defaultIterations":"1","customOverrides":"{}"}}]}`},
		{"empty salt key", `{"profiles":[{"name":"root","settings":{"saltKey":"","defaultIterations":"1","customOverrides":"{}"}}]}`},
		{"numeric iterations", `{"profiles":[{"name":"root","settings":{"saltKey":"a","defaultIterations":10000,"customOverrides":"{}"}}]}`},
		{"non-digit iterations", `{"profiles":[{"name":"root","settings":{"saltKey":"a","defaultIterations":"ten","customOverrides":"{}"}}]}`},
		{"zero iterations", `{"profiles":[{"name":"root","settings":{"saltKey":"a","defaultIterations":"0","customOverrides":"{}"}}]}`},
		{"iterations overflow", `{"profiles":[{"name":"root","settings":{"saltKey":"a","defaultIterations":"99999999999","customOverrides":"{}"}}]}`},
		{"overrides not a string", `{"profiles":[{"name":"root","settings":{"saltKey":"a","defaultIterations":"1","customOverrides":{}}}]}`},
		{"overrides corrupt", `{"profiles":[{"name":"root","settings":{"saltKey":"a","defaultIterations":"1","customOverrides":"{"}}]}`},
		{"overrides null", `{"profiles":[{"name":"root","settings":{"saltKey":"a","defaultIterations":"1","customOverrides":"null"}}]}`},
		{"overrides wrong value type", `{"profiles":[{"name":"root","settings":{"saltKey":"a","defaultIterations":"1","customOverrides":"{\"a.com\":5}"}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func TestValidate_ValidDocument(t *testing.T) {
	doc := []byte(`{"profiles":[{"name":"root","settings":{"saltKey":"a","defaultIterations":"42","customOverrides":"{}"}}]}`)
	assert.NoError(t, Validate(doc))
}
