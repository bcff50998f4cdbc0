package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/sketchsync/internal/logging"
	"github.com/dmitrijs2005/sketchsync/internal/models"
)

const (
	// successDisplayDuration is how long a Success status stays visible
	// before auto-reverting to Idle.
	successDisplayDuration = 2 * time.Second

	drainPollInterval = 20 * time.Millisecond
)

// errOffline marks a run skipped because the connectivity probe failed.
// Swallowed: the document goes back to Idle without surfacing an error.
var errOffline = errors.New("workspace unreachable")

// docState is the coordinator's per-document bookkeeping. Guarded by the
// coordinator mutex; never persisted.
type docState struct {
	running    bool
	rerun      bool
	cancelWait context.CancelFunc
	status     models.SyncStatus
	// gen increments on every status transition, so a stale Success
	// auto-revert can recognize it has been preempted.
	gen int
}

// CoordinatorParams collects the collaborators a Coordinator needs.
type CoordinatorParams struct {
	Runner Runner
	// Online probes connectivity before each run; nil assumes online.
	Online func(ctx context.Context) bool
	Logger logging.Logger
	// SuccessDisplay overrides successDisplayDuration when positive.
	SuccessDisplay time.Duration
}

// Coordinator debounces sync requests, coalesces bursts into single runs,
// and serializes runs per document: at most one worker in flight and at
// most one queued rerun, regardless of how many requests arrive.
//
// The debounce waiter runs on a cancelable context so a newer request can
// replace it. The worker runs on the coordinator's base context instead
// and is never torn down by the Coordinator itself; shutdown waits via
// Drain.
type Coordinator struct {
	baseCtx        context.Context
	runner         Runner
	online         func(ctx context.Context) bool
	log            logging.Logger
	successDisplay time.Duration

	mu   sync.Mutex
	docs map[string]*docState
}

// NewCoordinator builds a Coordinator whose workers run on ctx. Canceling
// ctx aborts in-flight remote calls; that condition is reported as Idle,
// not as an error.
func NewCoordinator(ctx context.Context, p CoordinatorParams) *Coordinator {
	log := p.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	display := p.SuccessDisplay
	if display <= 0 {
		display = successDisplayDuration
	}
	return &Coordinator{
		baseCtx:        ctx,
		runner:         p.Runner,
		online:         p.Online,
		log:            log,
		successDisplay: display,
		docs:           map[string]*docState{},
	}
}

// stateLocked returns the registry entry for id, creating it Idle on first
// use. Caller holds mu.
func (c *Coordinator) stateLocked(id string) *docState {
	st, ok := c.docs[id]
	if !ok {
		st = &docState{status: models.StatusIdle}
		c.docs[id] = st
	}
	return st
}

// RequestSync schedules a sync attempt after delay. A request arriving
// while a previous one is still waiting replaces it, so a burst of edits
// inside the window produces one run, reading the document state at the
// moment the window elapses.
func (c *Coordinator) RequestSync(doc *models.Document, delay time.Duration) {
	id := doc.ID

	c.mu.Lock()
	st := c.stateLocked(id)
	if st.cancelWait != nil {
		st.cancelWait()
	}
	waitCtx, cancel := context.WithCancel(context.Background())
	st.cancelWait = cancel
	c.mu.Unlock()

	go c.wait(waitCtx, doc, delay)
}

// ForceSync schedules a sync attempt with zero wait.
func (c *Coordinator) ForceSync(doc *models.Document) {
	c.RequestSync(doc, 0)
}

// wait is the debounce waiter: it sleeps out the window, then either
// starts a worker or, when one is already in flight, flags a rerun.
func (c *Coordinator) wait(ctx context.Context, doc *models.Document, delay time.Duration) {
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.docs[doc.ID]
	if !ok || ctx.Err() != nil {
		// Evicted, or replaced by a newer request after the timer fired.
		return
	}
	st.cancelWait = nil

	if st.running {
		st.rerun = true
		return
	}
	c.startRunLocked(st, doc)
}

// startRunLocked marks the document running and launches the worker.
// Caller holds mu.
func (c *Coordinator) startRunLocked(st *docState, doc *models.Document) {
	st.running = true
	c.setStatusLocked(st, models.StatusSyncing)
	go c.work(doc)
}

// work executes one run and folds the outcome into the registry. Offline
// and shutdown conditions end Idle; other failures surface as Error until
// the next attempt. A queued rerun starts immediately either way.
func (c *Coordinator) work(doc *models.Document) {
	err := c.run(doc)

	c.mu.Lock()
	st, ok := c.docs[doc.ID]
	if !ok {
		// Evicted mid-run; drop the outcome.
		c.mu.Unlock()
		return
	}
	st.running = false
	rerun := st.rerun
	st.rerun = false

	switch {
	case err == nil:
		c.setStatusLocked(st, models.StatusSuccess)
		c.scheduleRevert(doc.ID, st.gen)
	case c.swallow(err):
		c.log.Debug(c.baseCtx, "sync attempt skipped", "doc", doc.ID, "reason", err)
		c.setStatusLocked(st, models.StatusIdle)
	default:
		c.log.Error(c.baseCtx, "sync failed", "doc", doc.ID, "error", err)
		c.setStatusLocked(st, models.StatusError(err.Error()))
	}

	if rerun {
		c.startRunLocked(st, doc)
	}
	c.mu.Unlock()
}

func (c *Coordinator) run(doc *models.Document) error {
	if c.online != nil && !c.online(c.baseCtx) {
		return errOffline
	}
	return c.runner.Run(c.baseCtx, doc)
}

func (c *Coordinator) swallow(err error) bool {
	return errors.Is(err, errOffline) || errors.Is(err, context.Canceled)
}

func (c *Coordinator) setStatusLocked(st *docState, s models.SyncStatus) {
	st.status = s
	st.gen++
}

// scheduleRevert flips a Success status back to Idle after the display
// delay, unless a newer transition already replaced it.
func (c *Coordinator) scheduleRevert(id string, gen int) {
	time.AfterFunc(c.successDisplay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		st, ok := c.docs[id]
		if !ok || st.gen != gen {
			return
		}
		c.setStatusLocked(st, models.StatusIdle)
	})
}

// StatusOf returns the document's current sync status. Unknown IDs are
// Idle. Never blocks on sync work.
func (c *Coordinator) StatusOf(id string) models.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.docs[id]; ok {
		return st.status
	}
	return models.StatusIdle
}

// Evict drops the registry entry for a deleted document, canceling a
// pending waiter. A worker already in flight finishes on its own; its
// outcome is discarded.
func (c *Coordinator) Evict(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.docs[id]
	if !ok {
		return
	}
	if st.cancelWait != nil {
		st.cancelWait()
	}
	delete(c.docs, id)
}

// Drain blocks until no document is waiting, running, or queued for a
// rerun, or until ctx expires.
func (c *Coordinator) Drain(ctx context.Context) error {
	t := time.NewTicker(drainPollInterval)
	defer t.Stop()
	for {
		if c.quiet() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Coordinator) quiet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range c.docs {
		if st.running || st.rerun || st.cancelWait != nil {
			return false
		}
	}
	return true
}
