package draft

import (
	"context"
	"sync"
	"time"

	"geoconsole/errs"
	"geoconsole/metrics"

	"github.com/rs/zerolog"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusRequesting Status = "requesting"
	StatusSuccess    Status = "success"
	StatusFailure    Status = "failure"
)

// Resource binds an Editor to one upstream record.
type Resource[R any] struct {
	// Name labels metrics and logs, e.g. "dataset".
	Name string
	// Key identifies the record in the Scheduler; one editor per key.
	Key   string
	Equal func(a, b R) bool
	Clone func(R) R
	// Save sends the record upstream and returns the server's version.
	Save func(ctx context.Context, record R) (R, error)
	// Commit publishes a server record to the global store. It is called
	// for every successful save, also after the editor was closed.
	Commit func(record R)
}

// Snapshot is a consistent view of an editor.
type Snapshot[R any] struct {
	Auth    R      `json:"authoritative"`
	Draft   R      `json:"draft"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Dirty   bool   `json:"dirty"`
}

type Options struct {
	// MessageDisplay is how long success and failure stay visible.
	MessageDisplay time.Duration
	OnChange       func(snapshot interface{})
}

// Editor keeps an authoritative record and a local draft and reconciles the
// draft with upstream through the Scheduler.
type Editor[R any] struct {
	res      Resource[R]
	sched    *Scheduler
	logger   zerolog.Logger
	display  time.Duration
	onChange func(snapshot interface{})

	mu       sync.Mutex
	auth     R
	draft    R
	status   Status
	message  string
	statusID uint64

	// seq is the sequence number of the latest local intent; a completed
	// save with an older number is stale.
	seq      uint64
	inflight int
	wantSave bool
	closed   bool
}

func NewEditor[R any](sched *Scheduler, res Resource[R], auth R, logger zerolog.Logger, opts Options) *Editor[R] {
	return &Editor[R]{
		res:      res,
		sched:    sched,
		logger:   logger.With().Str("editor", res.Key).Logger(),
		display:  opts.MessageDisplay,
		onChange: opts.OnChange,
		auth:     res.Clone(auth),
		draft:    res.Clone(auth),
		status:   StatusIdle,
	}
}

func (e *Editor[R]) Key() string { return e.res.Key }

// Edit applies mutate to the draft. Nothing happens when the draft does not
// change. A draft that now differs from the authoritative record is saved;
// one that is back to it cancels the queued save.
func (e *Editor[R]) Edit(mutate func(*R)) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}

	next := e.res.Clone(e.draft)
	mutate(&next)
	if e.res.Equal(next, e.draft) {
		e.mu.Unlock()
		return false
	}
	e.draft = next

	if e.res.Equal(e.draft, e.auth) {
		e.seq++
		if e.sched.Drop(e.res.Key) {
			e.inflight--
		}
		// a running save may still move the authoritative record away
		e.wantSave = e.inflight > 0
		if e.inflight == 0 {
			e.setStatus(StatusIdle, "")
		}
	} else {
		e.enqueue()
	}

	snapshot := e.snapshot()
	e.mu.Unlock()

	e.notify(snapshot)
	return true
}

// Stage changes the draft without saving it.
func (e *Editor[R]) Stage(mutate func(*R)) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}

	next := e.res.Clone(e.draft)
	mutate(&next)
	if e.res.Equal(next, e.draft) {
		e.mu.Unlock()
		return false
	}
	e.draft = next

	snapshot := e.snapshot()
	e.mu.Unlock()

	e.notify(snapshot)
	return true
}

// Save enqueues the draft when it differs from the authoritative record.
func (e *Editor[R]) Save() bool {
	e.mu.Lock()
	if e.closed || e.res.Equal(e.draft, e.auth) {
		e.mu.Unlock()
		return false
	}

	e.enqueue()
	snapshot := e.snapshot()
	e.mu.Unlock()

	e.notify(snapshot)
	return true
}

// Sync replaces the authoritative record with a fresh upstream copy. The
// draft follows when it has no local changes and nothing is in flight.
func (e *Editor[R]) Sync(auth R) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	previous := e.auth
	e.auth = e.res.Clone(auth)
	if e.inflight == 0 && e.res.Equal(e.draft, previous) {
		e.draft = e.res.Clone(auth)
	}

	snapshot := e.snapshot()
	e.mu.Unlock()

	e.notify(snapshot)
}

// Close unmounts the editor. Saves already running still commit their
// result to the store, the editor itself no longer changes.
func (e *Editor[R]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	if e.sched.Drop(e.res.Key) {
		e.inflight--
	}
	e.statusID++
}

func (e *Editor[R]) Snapshot() Snapshot[R] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Editor[R]) Draft() R {
	return e.Snapshot().Draft
}

func (e *Editor[R]) Status() Status {
	return e.Snapshot().Status
}

func (e *Editor[R]) snapshot() Snapshot[R] {
	return Snapshot[R]{
		Auth:    e.res.Clone(e.auth),
		Draft:   e.res.Clone(e.draft),
		Status:  e.status,
		Message: e.message,
		Dirty:   !e.res.Equal(e.draft, e.auth),
	}
}

// enqueue must be called with e.mu held.
func (e *Editor[R]) enqueue() {
	e.seq++
	seq := e.seq
	payload := e.res.Clone(e.draft)

	e.wantSave = true
	e.setStatus(StatusRequesting, "")

	e.inflight++
	replaced := e.sched.Submit(e.res.Key, func(ctx context.Context) {
		e.reconcile(ctx, seq, payload)
	})
	if replaced {
		e.inflight--
	}
}

func (e *Editor[R]) reconcile(ctx context.Context, seq uint64, payload R) {
	record, err := e.res.Save(ctx, payload)
	if err == nil && e.res.Commit != nil {
		e.res.Commit(record)
	}

	e.mu.Lock()
	e.inflight--
	latest := seq == e.seq

	result := "success"
	switch {
	case err == nil:
		e.auth = e.res.Clone(record)
		if !latest {
			result = "stale"
			break
		}
		if e.closed {
			break
		}
		// staged edits made while the save was running survive
		if e.res.Equal(e.draft, payload) {
			e.draft = e.res.Clone(record)
		}
		e.wantSave = false
		e.setStatus(StatusSuccess, "")

	default:
		result = "failure"
		e.logger.Warn().Err(err).Uint64("seq", seq).Msg("save failed")
		if !latest || e.closed {
			break
		}
		e.draft = e.res.Clone(e.auth)
		e.wantSave = false
		e.setStatus(StatusFailure, errs.Display(err))
	}
	metrics.ObserveReconcile(e.res.Name, result)

	if !e.closed && e.inflight == 0 && e.wantSave {
		if e.res.Equal(e.draft, e.auth) {
			e.wantSave = false
			e.setStatus(StatusIdle, "")
		} else {
			e.enqueue()
		}
	}

	if e.closed {
		e.mu.Unlock()
		return
	}
	snapshot := e.snapshot()
	e.mu.Unlock()

	e.notify(snapshot)
}

// setStatus must be called with e.mu held. Success and failure fall back to
// idle after the display delay unless another status replaced them.
func (e *Editor[R]) setStatus(status Status, message string) {
	e.status = status
	e.message = message
	e.statusID++

	if e.display <= 0 || (status != StatusSuccess && status != StatusFailure) {
		return
	}

	id := e.statusID
	time.AfterFunc(e.display, func() {
		e.mu.Lock()
		if e.closed || e.statusID != id {
			e.mu.Unlock()
			return
		}
		e.status = StatusIdle
		e.message = ""
		snapshot := e.snapshot()
		e.mu.Unlock()

		e.notify(snapshot)
	})
}

func (e *Editor[R]) notify(snapshot Snapshot[R]) {
	if e.onChange != nil {
		e.onChange(snapshot)
	}
}
