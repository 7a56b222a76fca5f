package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/krunch/internal/attrs"
	"github.com/roach88/krunch/internal/domain"
	"github.com/roach88/krunch/internal/prefs"
	"github.com/roach88/krunch/internal/profile"
)

// OverrideEntry is one stored override, raw and decoded.
type OverrideEntry struct {
	Domain     string
	Encoded    string
	Attributes attrs.AttributeSet
}

// ListOverrides returns the stored overrides sorted by domain.
func (s *Service) ListOverrides(ctx context.Context) ([]OverrideEntry, error) {
	st, _, err := s.readState(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]OverrideEntry, 0, len(st.Overrides))
	for _, d := range st.Overrides.Domains() {
		entries = append(entries, OverrideEntry{
			Domain:     d,
			Encoded:    st.Overrides[d],
			Attributes: s.codec.Decode(st.Overrides[d]),
		})
	}
	return entries, nil
}

// ShowOverride returns the override stored for input. ok is false when
// there is none.
func (s *Service) ShowOverride(ctx context.Context, input string) (entry OverrideEntry, ok bool, err error) {
	name := domain.Canonicalize(input)
	if name == "" {
		return OverrideEntry{}, false, fmt.Errorf("%w: %q", ErrEmptyDomain, input)
	}
	st, _, err := s.readState(ctx)
	if err != nil {
		return OverrideEntry{}, false, err
	}
	encoded, ok := st.Overrides[name]
	if !ok {
		return OverrideEntry{Domain: name}, false, nil
	}
	return OverrideEntry{
		Domain:     name,
		Encoded:    encoded,
		Attributes: s.codec.GetDomainOverride(name, st.Overrides),
	}, true, nil
}

// DeleteOverride removes the override for input and reports whether one
// existed.
func (s *Service) DeleteOverride(ctx context.Context, input string) (bool, error) {
	name := domain.Canonicalize(input)
	if name == "" {
		return false, fmt.Errorf("%w: %q", ErrEmptyDomain, input)
	}
	st, _, err := s.readState(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := st.Overrides[name]; !ok {
		return false, nil
	}
	delete(st.Overrides, name)
	if err := s.saveOverrides(ctx, st.Overrides); err != nil {
		return false, err
	}
	s.logger.Info("override deleted", "domain", name)
	return true, nil
}

// SaltKey returns the stored salt key, or ErrNoSaltKey.
func (s *Service) SaltKey(ctx context.Context) (string, error) {
	key, ok, err := s.store.GetString(ctx, prefs.KeySaltKey)
	if err != nil {
		return "", fmt.Errorf("load salt key: %w", err)
	}
	if !ok || key == "" {
		return "", ErrNoSaltKey
	}
	return key, nil
}

// RegenerateSaltKey replaces the salt key. Every password generated so far
// changes.
func (s *Service) RegenerateSaltKey(ctx context.Context) (string, error) {
	key, err := s.engine.GenerateSaltKey()
	if err != nil {
		return "", fmt.Errorf("generate salt key: %w", err)
	}
	if err := s.store.PutString(ctx, prefs.KeySaltKey, key); err != nil {
		return "", fmt.Errorf("store salt key: %w", err)
	}
	s.logger.Warn("salt key regenerated, all previously generated passwords changed")
	return key, nil
}

// Export renders the persisted state as a settings document.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	st, found, err := s.readState(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoSaltKey
	}
	return profile.Export(profile.Settings{
		SaltKey:           st.SaltKey,
		DefaultIterations: strconv.FormatUint(uint64(st.DefaultIterations), 10),
		CustomOverrides:   st.Overrides.String(),
	})
}

// Import validates data and replaces the persisted state with it. A
// document that fails validation changes nothing.
func (s *Service) Import(ctx context.Context, data []byte) (profile.Settings, error) {
	settings, err := profile.Parse(data)
	if err != nil {
		return profile.Settings{}, err
	}
	if settings.CustomOverrides == "" {
		settings.CustomOverrides = attrs.OverrideMap{}.String()
	}

	err = s.store.PutAll(ctx, map[string]string{
		prefs.KeySaltKey:           settings.SaltKey,
		prefs.KeyDefaultIterations: settings.DefaultIterations,
		prefs.KeyCustomOverrides:   settings.CustomOverrides,
	})
	if err != nil {
		return profile.Settings{}, fmt.Errorf("store imported settings: %w", err)
	}
	s.logger.Info("settings imported")
	return settings, nil
}
