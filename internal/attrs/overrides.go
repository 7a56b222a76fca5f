package attrs

import (
	"encoding/json"
	"maps"
	"slices"
)

// OverrideMap maps a domain to its encoded AttributeSet.
type OverrideMap map[string]string

// ParseOverrideMap decodes the persisted JSON object. An empty or corrupt
// document yields an empty map: every domain then falls back to the
// defaults.
func (c *Codec) ParseOverrideMap(s string) OverrideMap {
	m := OverrideMap{}
	if s == "" {
		return m
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		c.logger.Info("failed to parse override map, ignoring saved overrides", "error", err)
		return OverrideMap{}
	}
	if m == nil {
		// "null" unmarshals to a nil map.
		m = OverrideMap{}
	}
	return m
}

// String returns the JSON object form with keys in sorted order.
func (m OverrideMap) String() string {
	if m == nil {
		return "{}"
	}
	// map[string]string always marshals.
	b, _ := json.Marshal(map[string]string(m))
	return string(b)
}

// Domains returns the domains with a stored entry, sorted.
func (m OverrideMap) Domains() []string {
	return slices.Sorted(maps.Keys(m))
}

// GetDomainOverride returns the saved override for domain, or the default
// set if none is stored.
func (c *Codec) GetDomainOverride(domain string, m OverrideMap) AttributeSet {
	encoded, ok := m[domain]
	if !ok {
		return Default()
	}
	return c.Decode(encoded)
}
