// Package profile reads and writes the settings export document.
//
// The document holds exactly one profile named "root" whose settings carry
// the salt key, the default iteration count (as text) and the override map
// (as a JSON object string):
//
//	{"profiles":[{"name":"root","settings":{
//	    "saltKey":"...","defaultIterations":"10000","customOverrides":"{...}"}}]}
//
// Import is all or nothing: a document that fails validation is rejected
// before anything is applied.
package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/jsonc"
)

// RootProfile is the name of the only profile.
const RootProfile = "root"

// ErrInvalidSettings is wrapped by every validation failure.
var ErrInvalidSettings = errors.New("invalid settings document")

// Settings is the persisted state carried by an export.
type Settings struct {
	SaltKey           string `json:"saltKey"`
	DefaultIterations string `json:"defaultIterations"`
	CustomOverrides   string `json:"customOverrides"`
}

// Profile is one named entry of a Document.
type Profile struct {
	Name     string   `json:"name"`
	Settings Settings `json:"settings"`
}

// Document is the top-level export object.
type Document struct {
	Profiles []Profile `json:"profiles"`
}

// Export renders s as an indented document ending in a newline.
func Export(s Settings) ([]byte, error) {
	doc := Document{Profiles: []Profile{{Name: RootProfile, Settings: s}}}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse validates data and returns its settings. Comments and trailing
// commas are accepted. Every failure wraps ErrInvalidSettings.
func Parse(data []byte) (Settings, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Settings{}, fmt.Errorf("%w: empty document", ErrInvalidSettings)
	}
	plain := jsonc.ToJSON(data)

	if err := Validate(plain); err != nil {
		return Settings{}, err
	}

	var doc Document
	if err := json.Unmarshal(plain, &doc); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	s := doc.Profiles[0].Settings

	if err := s.check(); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return s, nil
}

// Iterations returns the default iteration count.
func (s Settings) Iterations() (uint32, error) {
	n, err := strconv.ParseUint(s.DefaultIterations, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("defaultIterations %q: %w", s.DefaultIterations, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("defaultIterations must be at least 1")
	}
	return uint32(n), nil
}

// check covers what the schema cannot: numeric range and the override map
// being a JSON object of strings.
func (s Settings) check() error {
	if _, err := s.Iterations(); err != nil {
		return err
	}
	if s.CustomOverrides == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s.CustomOverrides), &m); err != nil {
		return fmt.Errorf("customOverrides: %w", err)
	}
	if m == nil {
		return fmt.Errorf("customOverrides: not an object")
	}
	return nil
}
