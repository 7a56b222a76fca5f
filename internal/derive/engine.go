package derive

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/tilinna/z85"
	"golang.org/x/crypto/pbkdf2"
)

// KeySize is the width in bytes of every derived key (256 bits).
const KeySize = 32

// SaltKeySize is the number of random bytes behind a salt key.
const SaltKeySize = 512

// Provider supplies the primitives the pipeline is built on. It is passed to
// New explicitly; nothing is registered globally.
type Provider struct {
	// NewHash constructs the digest used for the seed hash and as the PBKDF2
	// PRF. Must produce KeySize-byte sums.
	NewHash func() hash.Hash

	// Rand is the source for salt keys.
	Rand io.Reader
}

// DefaultProvider returns SHA-256 and the operating system CSPRNG.
func DefaultProvider() Provider {
	return Provider{NewHash: sha256.New, Rand: rand.Reader}
}

// Params are the per-request inputs besides the secret.
type Params struct {
	Domain            string
	SaltKey           string
	Iterations        uint32
	AllowSpecialChars bool
	Truncation        int32
}

// Engine runs the derivation pipeline. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	provider Provider
}

// New returns an Engine using p. Unset provider fields fall back to
// DefaultProvider.
func New(p Provider) *Engine {
	def := DefaultProvider()
	if p.NewHash == nil {
		p.NewHash = def.NewHash
	}
	if p.Rand == nil {
		p.Rand = def.Rand
	}
	return &Engine{provider: p}
}

// SeedHash hashes the master secret once. This is the only step that sees
// the raw secret; callers should clear their copy after it returns.
func (e *Engine) SeedHash(secret []byte) ([KeySize]byte, error) {
	var seed [KeySize]byte
	sum := e.digest(secret)
	if len(sum) != KeySize {
		return seed, stageError(StageSeed, fmt.Errorf("digest size %d, want %d", len(sum), KeySize))
	}
	copy(seed[:], sum)
	return seed, nil
}

// DeriveSalt stretches the hashed domain using the hashed salt key as salt.
// The roles are deliberate: changing them would change every password ever
// generated.
func (e *Engine) DeriveSalt(domain, saltKey string, iterations uint32) ([]byte, error) {
	if iterations == 0 {
		return nil, stageError(StageSalt, ErrInvalidIterations)
	}
	password := e.digest([]byte(domain))
	salt := e.digest([]byte(saltKey))
	return pbkdf2.Key(password, salt, int(iterations), KeySize, e.provider.NewHash), nil
}

// DerivePasswordKey stretches the seed hash with the derived salt.
func (e *Engine) DerivePasswordKey(seed [KeySize]byte, salt []byte, iterations uint32) ([]byte, error) {
	if iterations == 0 {
		return nil, stageError(StageKey, ErrInvalidIterations)
	}
	if len(salt) == 0 {
		return nil, stageError(StageKey, fmt.Errorf("empty salt"))
	}
	return pbkdf2.Key(seed[:], salt, int(iterations), KeySize, e.provider.NewHash), nil
}

// EncodeOutput renders key as text. With special characters allowed the
// key is Z85-encoded and '/' becomes '_'. Otherwise it is unpadded URL-safe
// base64, drawing only from [A-Za-z0-9_-].
func (e *Engine) EncodeOutput(key []byte, allowSpecialChars bool) (string, error) {
	if !allowSpecialChars {
		return base64.RawURLEncoding.EncodeToString(key), nil
	}

	dst := make([]byte, z85.EncodedLen(len(key)))
	n, err := z85.Encode(dst, key)
	if err != nil {
		return "", stageError(StageEncode, err)
	}
	return strings.ReplaceAll(string(dst[:n]), "/", "_"), nil
}

// Finalize truncates encoded to at most truncation characters. A
// non-positive truncation leaves it unchanged. It never pads.
func Finalize(encoded string, truncation int32) string {
	if truncation <= 0 || int(truncation) >= len(encoded) {
		return encoded
	}
	return encoded[:truncation]
}

// GenerateSaltKey draws SaltKeySize random bytes and returns them base64
// encoded. This is the only randomized operation of the package.
func (e *Engine) GenerateSaltKey() (string, error) {
	buf := make([]byte, SaltKeySize)
	if _, err := io.ReadFull(e.provider.Rand, buf); err != nil {
		return "", stageError(StageRandom, fmt.Errorf("read random bytes: %w", err))
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Generate runs the whole pipeline:
// SeedHash → DeriveSalt → DerivePasswordKey → EncodeOutput → Finalize.
// For fixed inputs the output is always identical.
func (e *Engine) Generate(secret []byte, p Params) (string, error) {
	seed, err := e.SeedHash(secret)
	if err != nil {
		return "", err
	}
	defer clear(seed[:])

	salt, err := e.DeriveSalt(p.Domain, p.SaltKey, p.Iterations)
	if err != nil {
		return "", err
	}

	key, err := e.DerivePasswordKey(seed, salt, p.Iterations)
	if err != nil {
		return "", err
	}
	defer clear(key)

	encoded, err := e.EncodeOutput(key, p.AllowSpecialChars)
	if err != nil {
		return "", err
	}

	return Finalize(encoded, p.Truncation), nil
}

func (e *Engine) digest(b []byte) []byte {
	h := e.provider.NewHash()
	h.Write(b)
	return h.Sum(nil)
}
