// Package attrs defines the per-domain generation attributes and their
// persisted form.
//
// An AttributeSet carries the four tunable parameters of a derivation
// (domain, iteration count, truncation, output alphabet). Each may be unset,
// in which case the default applies. Only the fields that deviate from the
// defaults are stored, as an override:
//
//	example.com -> "|5000||"
//
// Overrides for all domains live in one OverrideMap, persisted as a JSON
// object. The wire format is shared with settings files exported by older
// releases and must not change.
package attrs
