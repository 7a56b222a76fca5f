package derive

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Known-answer inputs shared with the settings files of earlier releases.
const (
	vectorSecret     = "foo"
	vectorDomain     = "google.com"
	vectorIterations = uint32(10000)
	vectorSaltKey    = "np/hF+PCxK25Unqao/wq2+ybZcpxoeRubXcezOU6nhE0CejUYcCFzLBtR/PW8zZMvt6+IySIF7LTJfEoD91M6J+tPaqsb3flDUyolwLxMqT2fRmgPjZoLHLW3/zGy4xm01jqoxwUrQ5obBaLeVPofx6ev3ukFJpLiNScVS/ng+QaP/pEjXz0q8v0iPiskhee8lfjZK7mG+FxDHYDmtsGaLv0SKBH6joN1i7srXjyAzCFRrjCoP4q09IHwnbR/A56TC5vhKIYul6/L2gG+6JIjF7XrRWX+pMx8DjMV0lU6cPDMHtygQyEZJ92NnJ40rBvFKgkTJq8E8TjyFBYxlKuWDW/DdLy89LdzzDByMOyVamPBodN8gTrrMsWawTm0sBvwwcy5/hdo4cQE/XECZmryHUmvgQ+PEjBd+99hMezrA0wLX86UQ8kh8x2WhPz3w244kcfKqsiwPRniz4W6pw1084lM+hqM/oRZJSNfjGtlB2xfjVONRgjgLxMkTPnHdEWoleAi3zIHbVhn1ZgLgbvcjoSGSkIUHmC7+GupLTPSqZb+i53yJMGBPLfk5Uqk9/FfxjRvgcnlOmc3sRzMoLXnTzF13saEtiPbTW8MaY4KOSAbaC0If/3Ak7I2br+zaUQvD0E8W6uuxjRI3ZlN+GBZxmJLMNvzrhPNyR4F3cI9sk="

	wantSeedHex   = "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae"
	wantSaltB64   = "zOVGQE+x32Xys9/l/JWETPuzZaOIr1e1iDyxXM+WRS4="
	wantKeyB64    = "PlntUbsKGDH2Lsp5JMvHljS074mkCFxUgJ3wxBoDg1I="
	wantPlain     = "PlntUbsKGDH2Lsp5JMvHljS074mkCFxUgJ3wxBoDg1I"
	wantSpecial   = "k3vnIY9Yxf{aBHkb*jk]g{(.dQZgj8FsVhF8uUQ&"
	wantPlain16   = "PlntUbsKGDH2Lsp5"
	wantSpecial16 = "k3vnIY9Yxf{aBHkb"
)

func vectorKey(t *testing.T, e *Engine) []byte {
	t.Helper()
	seed, err := e.SeedHash([]byte(vectorSecret))
	require.NoError(t, err)
	salt, err := e.DeriveSalt(vectorDomain, vectorSaltKey, vectorIterations)
	require.NoError(t, err)
	key, err := e.DerivePasswordKey(seed, salt, vectorIterations)
	require.NoError(t, err)
	return key
}

func TestSeedHash_Vector(t *testing.T) {
	e := New(DefaultProvider())
	seed, err := e.SeedHash([]byte(vectorSecret))
	require.NoError(t, err)
	assert.Equal(t, wantSeedHex, hex.EncodeToString(seed[:]))
}

func TestDeriveSalt_Vector(t *testing.T) {
	e := New(DefaultProvider())
	salt, err := e.DeriveSalt(vectorDomain, vectorSaltKey, vectorIterations)
	require.NoError(t, err)
	assert.Len(t, salt, KeySize)
	assert.Equal(t, wantSaltB64, base64.StdEncoding.EncodeToString(salt))
}

func TestDerivePasswordKey_Vector(t *testing.T) {
	e := New(DefaultProvider())
	key := vectorKey(t, e)
	assert.Len(t, key, KeySize)
	assert.Equal(t, wantKeyB64, base64.StdEncoding.EncodeToString(key))
}

func TestEncodeOutput_Vector(t *testing.T) {
	e := New(DefaultProvider())
	key := vectorKey(t, e)

	plain, err := e.EncodeOutput(key, false)
	require.NoError(t, err)
	assert.Equal(t, wantPlain, plain)

	special, err := e.EncodeOutput(key, true)
	require.NoError(t, err)
	assert.Equal(t, wantSpecial, special)
}

func TestGenerate_Vector(t *testing.T) {
	e := New(DefaultProvider())

	tests := []struct {
		name       string
		special    bool
		truncation int32
		want       string
	}{
		{"plain untruncated", false, -1, wantPlain},
		{"special untruncated", true, -1, wantSpecial},
		{"plain truncated", false, 16, wantPlain16},
		{"special truncated", true, 16, wantSpecial16},
		{"zero truncation", true, 0, wantSpecial},
		{"oversized truncation", false, 200, wantPlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Generate([]byte(vectorSecret), Params{
				Domain:            vectorDomain,
				SaltKey:           vectorSaltKey,
				Iterations:        vectorIterations,
				AllowSpecialChars: tt.special,
				Truncation:        tt.truncation,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	e := New(DefaultProvider())
	p := Params{
		Domain:            "example.com",
		SaltKey:           "some-salt-key",
		Iterations:        100,
		AllowSpecialChars: true,
		Truncation:        12,
	}

	first, err := e.Generate([]byte("hunter2"), p)
	require.NoError(t, err)
	second, err := e.Generate([]byte("hunter2"), p)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	p.Domain = "example.org"
	other, err := e.Generate([]byte("hunter2"), p)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestEncodeOutput_PlainAlphabet(t *testing.T) {
	e := New(DefaultProvider())
	safe := regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	// Bytes chosen so that std base64 would emit '+' and '/'.
	key := bytes.Repeat([]byte{0xfb, 0xff, 0xbf}, 11)[:KeySize]
	out, err := e.EncodeOutput(key, false)
	require.NoError(t, err)
	assert.Regexp(t, safe, out)
	assert.NotContains(t, out, "=")
	assert.Len(t, out, 43)
}

func TestEncodeOutput_SpecialHasNoSlash(t *testing.T) {
	e := New(DefaultProvider())
	for i := 0; i < 64; i++ {
		key := bytes.Repeat([]byte{byte(i * 4)}, KeySize)
		out, err := e.EncodeOutput(key, true)
		require.NoError(t, err)
		assert.Len(t, out, 40)
		assert.NotContains(t, out, "/")
	}
}

func TestEncodeOutput_Z85RejectsBadLength(t *testing.T) {
	e := New(DefaultProvider())
	_, err := e.EncodeOutput([]byte{1, 2, 3}, true)
	require.Error(t, err)

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, StageEncode, ge.Stage)
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		in         string
		truncation int32
		want       string
	}{
		{"abcdef", -1, "abcdef"},
		{"abcdef", 0, "abcdef"},
		{"abcdef", -7, "abcdef"},
		{"abcdef", 1, "a"},
		{"abcdef", 6, "abcdef"},
		{"abcdef", 7, "abcdef"},
		{"", 4, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Finalize(tt.in, tt.truncation), "Finalize(%q, %d)", tt.in, tt.truncation)
	}
}

func TestZeroIterations(t *testing.T) {
	e := New(DefaultProvider())

	_, err := e.DeriveSalt("example.com", "k", 0)
	assert.ErrorIs(t, err, ErrInvalidIterations)

	var seed [KeySize]byte
	_, err = e.DerivePasswordKey(seed, []byte("salt"), 0)
	assert.ErrorIs(t, err, ErrInvalidIterations)

	_, err = e.Generate([]byte("x"), Params{Domain: "example.com", SaltKey: "k"})
	assert.True(t, IsGenerationError(err))
}

func TestSeedHash_WrongDigestSize(t *testing.T) {
	e := New(Provider{NewHash: md5.New})
	_, err := e.SeedHash([]byte("foo"))

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, StageSeed, ge.Stage)
}

func TestGenerateSaltKey(t *testing.T) {
	e := New(DefaultProvider())

	k1, err := e.GenerateSaltKey()
	require.NoError(t, err)
	k2, err := e.GenerateSaltKey()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(k1)
	require.NoError(t, err)
	assert.Len(t, raw, SaltKeySize)
	assert.NotEqual(t, k1, k2)
}

func TestGenerateSaltKey_UsesProviderRand(t *testing.T) {
	fixed := bytes.Repeat([]byte{0x42}, SaltKeySize)
	e := New(Provider{Rand: bytes.NewReader(fixed)})

	k, err := e.GenerateSaltKey()
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(fixed), k)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestGenerateSaltKey_RandFailure(t *testing.T) {
	e := New(Provider{Rand: failingReader{}})
	_, err := e.GenerateSaltKey()

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, StageRandom, ge.Stage)
	assert.True(t, strings.Contains(err.Error(), "entropy exhausted"))
}
