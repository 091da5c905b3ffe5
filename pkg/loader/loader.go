// Package loader fetches a family tree once and publishes it to observers.
//
// A [Loader] owns the "current snapshot" of a tree. It starts absent, and a
// single [Loader.Load] either replaces it with a new [tree.Snapshot] and
// notifies every subscriber, or leaves it absent and records the failure.
// There is no retry and no reload: a Loader performs at most one fetch in
// its lifetime.
//
//	l := loader.New(src, loader.Options{Logger: logger})
//	l.Subscribe(func(s *tree.Snapshot) { server.SetLayout(layout.Derive(s, opts)) })
//	l.Start(ctx) // background fetch, returns immediately
package loader

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/observability"
	"github.com/matzehuels/familytree/pkg/source"
	"github.com/matzehuels/familytree/pkg/tree"
)

// ErrNotLoaded is returned by consumers that need a snapshot before one has
// been published.
var ErrNotLoaded = errors.New(errors.ErrCodeNotLoaded, "tree not loaded")

// State is the outcome of the loader's single fetch.
type State int

const (
	StatePending State = iota // no fetch has finished yet
	StateLoaded               // a snapshot was published
	StateFailed               // the fetch failed; the snapshot stays absent
)

// String returns "pending", "loaded" or "failed".
func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Subscriber observes published snapshots.
type Subscriber func(*tree.Snapshot)

// Options configures a Loader.
type Options struct {
	// Logger receives load progress. Defaults to log.Default().
	Logger *log.Logger

	// Timeout bounds the fetch. Zero means the caller's context is the
	// only bound.
	Timeout time.Duration
}

// Loader performs one fetch of a Source and publishes the result.
// It is safe for concurrent use.
type Loader struct {
	src     source.Source
	logger  *log.Logger
	timeout time.Duration

	once sync.Once
	done chan struct{}

	mu    sync.RWMutex
	snap  *tree.Snapshot
	state State
	err   error
	subs  []Subscriber
}

// New creates a Loader for src. Nothing is fetched until Load or Start.
func New(src source.Source, opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Loader{
		src:     src,
		logger:  opts.Logger,
		timeout: opts.Timeout,
		done:    make(chan struct{}),
	}
}

// Load fetches the document, builds a snapshot and publishes it. Only the
// first call fetches; later and concurrent calls wait for it and return
// its outcome. Failures are wrapped as LOAD_FAILED.
func (l *Loader) Load(ctx context.Context) error {
	l.once.Do(func() {
		defer close(l.done)
		l.load(ctx)
	})
	<-l.done
	return l.Err()
}

// Start runs Load in a new goroutine and returns immediately.
func (l *Loader) Start(ctx context.Context) {
	go func() { _ = l.Load(ctx) }()
}

// Done is closed once the fetch has finished, successfully or not.
func (l *Loader) Done() <-chan struct{} {
	return l.done
}

func (l *Loader) load(ctx context.Context) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	desc := l.src.String()
	hooks := observability.Loader()
	hooks.OnLoadStart(ctx, desc)
	start := time.Now()
	l.logger.Debug("loading tree", "source", desc)

	doc, err := l.src.Fetch(ctx)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeLoadFailed, err, "load %s", desc)
		hooks.OnLoadComplete(ctx, desc, 0, time.Since(start), err)
		l.logger.Error("tree load failed", "source", desc, "err", err)
		l.fail(err)
		return
	}

	snap := tree.NewSnapshot(doc, desc)
	elapsed := time.Since(start)
	hooks.OnLoadComplete(ctx, desc, snap.Len(), elapsed, nil)
	l.logger.Info("tree loaded",
		"source", desc,
		"records", snap.Len(),
		"revision", snap.Revision(),
		"duration", elapsed)
	for _, d := range snap.Dangling() {
		l.logger.Warn("unresolved parent reference", "person", d.Child, "parent", d.Parent)
	}
	l.publish(snap)
}

func (l *Loader) fail(err error) {
	l.mu.Lock()
	l.state = StateFailed
	l.err = err
	l.mu.Unlock()
}

// publish swaps the snapshot and notifies subscribers outside the lock.
func (l *Loader) publish(snap *tree.Snapshot) {
	l.mu.Lock()
	l.snap = snap
	l.state = StateLoaded
	l.err = nil
	subs := append([]Subscriber(nil), l.subs...)
	l.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Subscribe registers fn for published snapshots. If a snapshot is already
// published, fn is called with it before Subscribe returns. Subscribers run
// synchronously in registration order.
func (l *Loader) Subscribe(fn Subscriber) {
	l.mu.Lock()
	l.subs = append(l.subs, fn)
	snap := l.snap
	l.mu.Unlock()

	if snap != nil {
		fn(snap)
	}
}

// Snapshot returns the current snapshot, or nil while absent.
func (l *Loader) Snapshot() *tree.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// State reports the fetch outcome so far.
func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Err returns the load error, or nil.
func (l *Loader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Source returns the description of the loader's source.
func (l *Loader) Source() string {
	return l.src.String()
}
