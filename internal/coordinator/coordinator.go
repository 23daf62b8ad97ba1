// Package coordinator runs the search executor of one widget instance.
//
// A Coordinator owns a single intent snapshot and one event loop
// goroutine. Dispatched actions, debounce expiry and search outcomes are
// all handled on that loop, so the snapshot has exactly one writer.
// Each search attempt carries its own cancellable context and attempt
// number; an outcome whose attempt is no longer current is discarded even
// when the transport ignored cancellation.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/compiler"
	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/settings"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithObserver sets the search outcome observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithID names the coordinator in logs.
func WithID(id string) Option {
	return func(c *Coordinator) { c.id = id }
}

type command struct {
	action  intent.Action
	refresh bool
	force   bool
	done    chan struct{}
}

type outcome struct {
	attempt uint64
	resp    intent.Response
	err     error
	took    time.Duration
}

// Coordinator debounces intent changes into cancellable searches.
type Coordinator struct {
	id       string
	settings settings.Settings
	compiler *compiler.Compiler
	searcher Searcher
	observer Observer
	logger   *zap.Logger

	commands chan command
	outcomes chan outcome
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once

	snap atomic.Pointer[intent.Intent]

	mu      sync.Mutex
	subs    map[int]chan intent.Intent
	nextSub int
	closed  bool

	// Owned by the loop goroutine.
	state   intent.Intent
	timer   *time.Timer
	timerC  <-chan time.Time
	attempt uint64
	cancel  context.CancelFunc
}

// New starts a coordinator. It initializes the intent from s and issues
// the mount search without waiting for the debounce interval.
func New(s settings.Settings, searcher Searcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		settings: s,
		compiler: compiler.New(s),
		searcher: searcher,
		observer: nopObserver{},
		logger:   zap.NewNop(),
		commands: make(chan command),
		outcomes: make(chan outcome),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		subs:     make(map[int]chan intent.Intent),
		state:    intent.Initial(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.id != "" {
		c.logger = c.logger.With(zap.String("session", c.id))
	}
	initial := c.state
	c.snap.Store(&initial)

	go c.run()
	return c
}

// ID returns the coordinator name given by WithID.
func (c *Coordinator) ID() string { return c.id }

// Settings returns the widget settings.
func (c *Coordinator) Settings() settings.Settings { return c.settings }

// Compiler returns the compiler bound to the widget settings.
func (c *Coordinator) Compiler() *compiler.Compiler { return c.compiler }

// Snapshot returns the current intent.
func (c *Coordinator) Snapshot() intent.Intent {
	return *c.snap.Load()
}

// Dispatch applies a to the intent and returns once it is applied.
func (c *Coordinator) Dispatch(ctx context.Context, a intent.Action) error {
	if a == nil {
		return fmt.Errorf("%w: nil action", domain.ErrInvalidAction)
	}
	return c.send(ctx, command{action: a})
}

// Refresh runs a search for the current intent now. force bypasses the
// minimum query length gate.
func (c *Coordinator) Refresh(ctx context.Context, force bool) error {
	return c.send(ctx, command{refresh: true, force: force})
}

func (c *Coordinator) send(ctx context.Context, cmd command) error {
	cmd.done = make(chan struct{})
	select {
	case c.commands <- cmd:
	case <-c.done:
		return domain.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-c.done:
		return domain.ErrClosed
	}
}

// Subscribe returns a channel receiving every new snapshot, starting with
// the current one. Slow readers only see the latest snapshot. The returned
// func unsubscribes and closes the channel.
func (c *Coordinator) Subscribe() (<-chan intent.Intent, func()) {
	ch := make(chan intent.Intent, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- *c.snap.Load()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close cancels the in-flight search, stops the loop and closes every
// subscription. Safe to call more than once.
func (c *Coordinator) Close() {
	c.once.Do(func() { close(c.quit) })
	<-c.done
}

// Done is closed once the coordinator has shut down.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

func (c *Coordinator) run() {
	defer close(c.done)

	c.apply(MountAction(c.settings))
	c.execute(false)

	for {
		select {
		case <-c.quit:
			c.shutdown()
			return
		case cmd := <-c.commands:
			c.handle(cmd)
			close(cmd.done)
		case <-c.timerC:
			c.timerC = nil
			c.execute(false)
		case o := <-c.outcomes:
			c.settle(o)
		}
	}
}

// MountAction returns the Initialize action a widget applies on mount.
func MountAction(s settings.Settings) intent.Initialize {
	filters := make([]intent.DefaultFilter, 0, len(s.DefaultFilters))
	for _, f := range s.DefaultFilters {
		filters = append(filters, intent.DefaultFilter{Key: f.Key, Value: f.Value})
	}
	return intent.Initialize{
		DefaultFilters: filters,
		DefaultQuery:   s.DefaultQuery,
		DefaultSort:    s.DefaultSort,
	}
}

// Normalize adapts a user action to the widget configuration. Facets
// flagged always-OR only take the OR operator, and single-select custom
// facets keep the last selected option.
func Normalize(s settings.Settings, a intent.Action) intent.Action {
	switch a := a.(type) {
	case intent.SetFacetOperator:
		if facet.IsAlwaysOR(s.FacetFields, a.Key) {
			a.Operator = facet.OR
		}
		return a
	case intent.SetCustomFacet:
		cf, ok := facet.CustomFacetByID(s.CustomFacets, a.ID)
		if ok && !cf.MultiSelect && len(a.Values) > 1 {
			a.Values = a.Values[len(a.Values)-1:]
		}
		return a
	}
	return a
}

// Apply folds user actions over state the way a running widget does.
func Apply(s settings.Settings, state intent.Intent, actions ...intent.Action) intent.Intent {
	for _, a := range actions {
		state = intent.Reduce(state, Normalize(s, a))
	}
	return state
}

func (c *Coordinator) handle(cmd command) {
	if cmd.refresh {
		c.execute(cmd.force)
		return
	}
	prev := c.state
	c.apply(Normalize(c.settings, cmd.action))
	if intent.SameSelection(prev, c.state) {
		return
	}
	c.supersede()
	c.debounce()
}

// supersede cancels the in-flight attempt; its outcome will be dropped.
func (c *Coordinator) supersede() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.cancel = nil
	c.observer.ObserveSearch(OutcomeCancelled, 0)
	c.logger.Debug("search superseded", zap.Uint64("attempt", c.attempt))
}

func (c *Coordinator) debounce() {
	c.stopTimer()
	if c.settings.DebounceDelay <= 0 {
		c.execute(false)
		return
	}
	c.timer = time.NewTimer(c.settings.DebounceDelay)
	c.timerC = c.timer.C
}

func (c *Coordinator) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerC = nil
}

// gated reports whether a non-empty query is too short to search while
// no facet constrains the result set.
func (c *Coordinator) gated(s intent.Intent) bool {
	q := strings.TrimSpace(s.Query)
	if q == "" || s.HasActiveFilters() {
		return false
	}
	return utf8.RuneCountInString(q) < c.settings.MinSearchLength
}

func (c *Coordinator) execute(force bool) {
	c.stopTimer()
	s := c.state
	if !force && c.gated(s) {
		if s.IsLoading {
			c.apply(intent.SetLoading{Loading: false})
		}
		c.observer.ObserveSearch(OutcomeSkipped, 0)
		c.logger.Debug("search skipped: query too short", zap.String("query", s.Query))
		return
	}

	c.supersede()
	c.attempt++
	attempt := c.attempt
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.apply(intent.SetLoading{Loading: true})
	doc := c.compiler.Compile(compiler.InputFrom(s))
	c.logger.Debug("search started",
		zap.Uint64("attempt", attempt),
		zap.String("query", s.Query),
		zap.Int("page", s.Page),
	)

	go func() {
		start := time.Now()
		resp, err := c.searcher.Search(ctx, doc)
		o := outcome{attempt: attempt, resp: resp, err: err, took: time.Since(start)}
		select {
		case c.outcomes <- o:
		case <-c.done:
		}
	}()
}

func (c *Coordinator) settle(o outcome) {
	if o.attempt != c.attempt || c.cancel == nil {
		c.logger.Debug("stale search outcome dropped",
			zap.Uint64("attempt", o.attempt),
			zap.Uint64("current", c.attempt),
		)
		return
	}
	c.cancel()
	c.cancel = nil

	if o.err != nil {
		if errors.Is(o.err, context.Canceled) {
			c.observer.ObserveSearch(OutcomeCancelled, o.took)
			return
		}
		c.observer.ObserveSearch(OutcomeError, o.took)
		c.logger.Warn("search failed",
			zap.Uint64("attempt", o.attempt),
			zap.Duration("took", o.took),
			zap.Error(o.err),
		)
		c.apply(intent.SetError{Message: o.err.Error()})
		return
	}

	c.observer.ObserveSearch(OutcomeOK, o.took)
	c.logger.Debug("search completed",
		zap.Uint64("attempt", o.attempt),
		zap.Int("total", o.resp.Hits.Total.Value),
		zap.Duration("took", o.took),
	)
	c.apply(intent.SetResults{Response: o.resp})
}

func (c *Coordinator) apply(a intent.Action) {
	c.state = intent.Reduce(c.state, a)
	next := c.state
	c.snap.Store(&next)
	c.publish(next)
}

func (c *Coordinator) publish(s intent.Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

func (c *Coordinator) shutdown() {
	c.stopTimer()
	c.supersede()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.logger.Debug("coordinator closed")
}
