// Package reconcile decides which sparse override to persist for a domain
// after a generation request, and merges saved overrides back into the
// attributes proposed on the next load.
package reconcile

import (
	"log/slog"

	"github.com/roach88/krunch/internal/attrs"
)

// Policy controls what Apply does with an override that carries no fields.
type Policy int

const (
	// PolicySkipEmpty leaves the map untouched when the override is empty.
	PolicySkipEmpty Policy = iota

	// PolicyAlwaysInsert stores the encoded override even when it is the
	// empty string, leaving a placeholder entry for the domain.
	PolicyAlwaysInsert
)

func (p Policy) String() string {
	switch p {
	case PolicySkipEmpty:
		return "skip-empty"
	case PolicyAlwaysInsert:
		return "always-insert"
	default:
		return "unknown"
	}
}

// Propose merges the saved override for domain into the defaults. The result
// is what the requester sees before making any edits.
func Propose(domain string, defaultIterations uint32, saved attrs.AttributeSet) attrs.AttributeSet {
	proposed := saved
	if !proposed.Domain.IsSet() {
		proposed.Domain = attrs.Some(domain)
	}
	if !proposed.Iterations.IsSet() {
		proposed.Iterations = attrs.Some(defaultIterations)
	}
	return proposed
}

// OverrideToSave returns the minimal override that reproduces current when
// merged over the defaults, keeping saved fields the requester did not touch.
//
// If current equals proposed the default set is returned and nothing should
// be written.
func OverrideToSave(current, saved, proposed attrs.AttributeSet) attrs.AttributeSet {
	if current.Equal(proposed) {
		return attrs.Default()
	}

	var base attrs.AttributeSet
	if saved.Exist() {
		base = saved
	}

	out := base
	if !current.Domain.Equal(proposed.Domain) {
		out.Domain = current.Domain
	}
	if !current.Iterations.Equal(proposed.Iterations) {
		out.Iterations = current.Iterations
	}
	if !current.Truncation.Equal(proposed.Truncation) {
		out.Truncation = current.Truncation
	}
	if current.SuppressSpecialChars != proposed.SuppressSpecialChars {
		out.SuppressSpecialChars = current.SuppressSpecialChars
	}
	return out
}

// Reconciler applies overrides to an OverrideMap under a Policy.
type Reconciler struct {
	codec  *attrs.Codec
	policy Policy
	logger *slog.Logger
}

// New returns a Reconciler. A nil logger discards.
func New(codec *attrs.Codec, policy Policy, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{codec: codec, policy: policy, logger: logger}
}

// Policy returns the configured policy.
func (r *Reconciler) Policy() Policy {
	return r.policy
}

// Apply writes the encoded override for domain into m and reports whether
// m changed. The caller persists m when it did.
func (r *Reconciler) Apply(m attrs.OverrideMap, domain string, override attrs.AttributeSet) bool {
	if !override.Exist() && r.policy == PolicySkipEmpty {
		r.logger.Debug("no override to save", "domain", domain)
		return false
	}

	encoded := r.codec.Encode(override)
	prev, had := m[domain]
	if had && prev == encoded {
		return false
	}
	m[domain] = encoded
	r.logger.Debug("override saved", "domain", domain, "override", override, "policy", r.policy.String())
	return true
}
