package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/krunch/internal/attrs"
	"github.com/roach88/krunch/internal/derive"
	"github.com/roach88/krunch/internal/domain"
	"github.com/roach88/krunch/internal/reconcile"
	"github.com/roach88/krunch/internal/worker"
)

// Edits are the changes a requester makes to the proposed attributes. Unset
// fields keep the proposed value.
type Edits struct {
	Domain               attrs.Opt[string]
	Iterations           attrs.Opt[uint32]
	Truncation           attrs.Opt[int32] // attrs.NoTruncation clears
	SuppressSpecialChars attrs.Opt[bool]
}

// Apply returns proposed with the edits applied.
func (e Edits) Apply(proposed attrs.AttributeSet) attrs.AttributeSet {
	current := proposed
	if d, ok := e.Domain.Get(); ok {
		current.Domain = attrs.Some(d)
	}
	if n, ok := e.Iterations.Get(); ok {
		current.Iterations = attrs.Some(n)
	}
	if n, ok := e.Truncation.Get(); ok {
		current = current.WithTruncation(n)
	}
	if b, ok := e.SuppressSpecialChars.Get(); ok {
		current.SuppressSpecialChars = b
	}
	return current
}

// Request asks for the password of one site.
type Request struct {
	// Input is a domain or URL; it is canonicalized before use.
	Input string
	Edits Edits
}

// Outcome is the result for one Request.
type Outcome struct {
	RequestID string
	Domain    string
	Password  string

	// Attributes are the confirmed attributes the password was derived with.
	Attributes attrs.AttributeSet

	// Override is what reconciliation computed for the domain.
	Override attrs.AttributeSet

	// Saved reports whether the override map entry for Domain changed.
	Saved bool

	Err error
}

// Generate runs a cycle for a single request. A failed derivation is
// returned as the error.
func (s *Service) Generate(ctx context.Context, secret []byte, req Request, save bool) (Outcome, error) {
	outs, err := s.GenerateAll(ctx, secret, []Request{req}, save)
	if err != nil {
		return Outcome{}, err
	}
	return outs[0], outs[0].Err
}

// GenerateAll runs one cycle for every request. Derivations run
// concurrently on the pool. Per-request failures are reported in
// Outcome.Err; the returned error is reserved for store failures and
// cancellation. With save set the override map is written once, after all
// derivations, and only if it changed.
func (s *Service) GenerateAll(ctx context.Context, secret []byte, reqs []Request, save bool) ([]Outcome, error) {
	state, err := s.LoadState(ctx)
	if err != nil {
		return nil, err
	}

	type pending struct {
		saved, proposed attrs.AttributeSet
	}
	outs := make([]Outcome, len(reqs))
	plans := make([]pending, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		name := domain.Canonicalize(req.Input)
		outs[i].Domain = name
		if name == "" {
			outs[i].Err = fmt.Errorf("%w: %q", ErrEmptyDomain, req.Input)
			continue
		}
		if alias, ok := req.Edits.Domain.Get(); ok && strings.Contains(alias, attrs.Delimiter) {
			outs[i].Err = fmt.Errorf("%w: %q", ErrInvalidAlias, alias)
			continue
		}

		saved := s.codec.GetDomainOverride(name, state.Overrides)
		proposed := reconcile.Propose(name, state.DefaultIterations, saved)
		current := req.Edits.Apply(proposed)
		plans[i] = pending{saved: saved, proposed: proposed}
		outs[i].Attributes = current

		job := worker.Job{
			Secret: secret,
			Params: derive.Params{
				Domain:            current.Domain.Or(name),
				SaltKey:           state.SaltKey,
				Iterations:        current.Iterations.Or(state.DefaultIterations),
				AllowSpecialChars: current.AllowSpecialChars(),
				Truncation:        current.TruncationLength(),
			},
		}

		g.Go(func() error {
			res, err := s.pool.Generate(gctx, job)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			outs[i].RequestID = res.RequestID
			outs[i].Password = res.Password
			outs[i].Err = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	changed := false
	for i := range outs {
		if outs[i].Err != nil {
			continue
		}
		outs[i].Override = reconcile.OverrideToSave(outs[i].Attributes, plans[i].saved, plans[i].proposed)
		if !save {
			continue
		}
		if s.reconciler.Apply(state.Overrides, outs[i].Domain, outs[i].Override) {
			outs[i].Saved = true
			changed = true
		}
	}

	if changed {
		if err := s.saveOverrides(ctx, state.Overrides); err != nil {
			return nil, err
		}
		s.logger.Debug("override map persisted", "domains", len(state.Overrides))
	}
	return outs, nil
}
