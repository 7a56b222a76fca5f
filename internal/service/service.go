// Package service runs generation cycles against the preference store.
//
// A cycle reads the persisted state once, derives one password per
// requested domain on the worker pool, reconciles each domain's override and
// writes the override map back once.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/roach88/krunch/internal/attrs"
	"github.com/roach88/krunch/internal/derive"
	"github.com/roach88/krunch/internal/prefs"
	"github.com/roach88/krunch/internal/reconcile"
	"github.com/roach88/krunch/internal/worker"
)

var (
	// ErrNoSaltKey is returned by read-only operations on a store that has
	// never been used.
	ErrNoSaltKey = errors.New("no salt key stored")

	// ErrEmptyDomain is returned for a request whose input canonicalizes to
	// nothing.
	ErrEmptyDomain = errors.New("empty domain")

	// ErrInvalidAlias is returned for a domain edit containing the override
	// field delimiter; it could not be saved and read back.
	ErrInvalidAlias = errors.New("domain alias must not contain " + attrs.Delimiter)
)

// Options configures a Service.
type Options struct {
	Store  prefs.Store
	Engine *derive.Engine
	Pool   *worker.Pool

	// DefaultIterations seeds the store on first use; zero selects
	// attrs.DefaultIterations.
	DefaultIterations uint32

	Policy reconcile.Policy
	Logger *slog.Logger
}

// Service orchestrates generation cycles. It is safe to use from one
// goroutine at a time; the store is assumed to have a single writer.
type Service struct {
	store      prefs.Store
	engine     *derive.Engine
	pool       *worker.Pool
	codec      *attrs.Codec
	reconciler *reconcile.Reconciler
	seedIter   uint32
	logger     *slog.Logger
}

// New returns a Service. A nil Engine uses the default provider and a nil
// Pool gets one worker per CPU.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	seed := opts.DefaultIterations
	if seed == 0 {
		seed = attrs.DefaultIterations
	}
	engine := opts.Engine
	if engine == nil {
		engine = derive.New(derive.DefaultProvider())
	}
	pool := opts.Pool
	if pool == nil {
		pool = worker.NewPool(engine, worker.WithLogger(logger))
	}

	codec := attrs.NewCodec(logger, seed)
	return &Service{
		store:      opts.Store,
		engine:     engine,
		pool:       pool,
		codec:      codec,
		reconciler: reconcile.New(codec, opts.Policy, logger),
		seedIter:   seed,
		logger:     logger,
	}
}

// Start runs the worker pool in the background. The returned function stops
// the pool and waits for it to exit.
func (s *Service) Start(ctx context.Context) (stop func() error) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.pool.Run(ctx) }()

	return func() error {
		s.pool.Stop()
		err := <-done
		cancel()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

// State is the persisted state as read at the start of a cycle.
type State struct {
	SaltKey           string
	DefaultIterations uint32
	Overrides         attrs.OverrideMap
}

// LoadState reads the persisted state. A missing salt key is generated and
// stored together with the default iteration count.
func (s *Service) LoadState(ctx context.Context) (State, error) {
	st, found, err := s.readState(ctx)
	if err != nil {
		return State{}, err
	}
	if found {
		return st, nil
	}

	key, err := s.engine.GenerateSaltKey()
	if err != nil {
		return State{}, fmt.Errorf("generate salt key: %w", err)
	}
	err = s.store.PutAll(ctx, map[string]string{
		prefs.KeySaltKey:           key,
		prefs.KeyDefaultIterations: strconv.FormatUint(uint64(st.DefaultIterations), 10),
	})
	if err != nil {
		return State{}, fmt.Errorf("store salt key: %w", err)
	}
	s.logger.Info("generated new salt key")

	st.SaltKey = key
	return st, nil
}

// readState reads the state without writing. found is false when no salt
// key is stored.
func (s *Service) readState(ctx context.Context) (State, bool, error) {
	var st State

	key, found, err := s.store.GetString(ctx, prefs.KeySaltKey)
	if err != nil {
		return st, false, fmt.Errorf("load salt key: %w", err)
	}
	st.SaltKey = key

	st.DefaultIterations = s.seedIter
	raw, ok, err := s.store.GetString(ctx, prefs.KeyDefaultIterations)
	if err != nil {
		return st, false, fmt.Errorf("load default iterations: %w", err)
	}
	if ok {
		n, perr := strconv.ParseUint(raw, 10, 32)
		if perr != nil || n == 0 {
			s.logger.Warn("bad stored default iteration count, using configured default",
				"value", raw, "default", s.seedIter)
		} else {
			st.DefaultIterations = uint32(n)
		}
	}

	overrides, _, err := s.store.GetString(ctx, prefs.KeyCustomOverrides)
	if err != nil {
		return st, false, fmt.Errorf("load overrides: %w", err)
	}
	st.Overrides = s.codec.ParseOverrideMap(overrides)

	return st, found && key != "", nil
}

func (s *Service) saveOverrides(ctx context.Context, m attrs.OverrideMap) error {
	if err := s.store.PutString(ctx, prefs.KeyCustomOverrides, m.String()); err != nil {
		return fmt.Errorf("save overrides: %w", err)
	}
	return nil
}
