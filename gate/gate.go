package gate

import (
	"context"
	"strings"
	"sync"
	"time"

	"geoconsole/config"
	"geoconsole/errs"

	"github.com/pkg/errors"
)

type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateSuccess    State = "success"
	StateFailure    State = "failure"
)

var (
	ErrNotConfirmed = errors.New("confirmation does not match")
	ErrBusy         = errors.New("deletion already in progress")
	ErrClosed       = errors.New("confirmation dialog is closed")
)

// Action performs the destructive request.
type Action func(ctx context.Context) error

// Status is what the delete dialog renders.
type Status struct {
	Open          bool   `json:"open"`
	State         State  `json:"state"`
	Confirmation  string `json:"confirmation"`
	DeleteEnabled bool   `json:"deleteEnabled"`
	CancelEnabled bool   `json:"cancelEnabled"`
	Message       string `json:"message,omitempty"`
	RedirectURL   string `json:"redirectUrl,omitempty"`
}

type Options struct {
	// OnRedirect fires SuccessDelay after a successful deletion.
	OnRedirect func(url string)
	OnChange   func(Status)
}

// Gate guards a destructive action behind a typed confirmation. There is
// no retry: after a failure the dialog closes and the user starts over.
type Gate struct {
	cfg    config.GateCfg
	action Action
	opts   Options

	mu           sync.Mutex
	open         bool
	state        State
	confirmation string
	message      string
	redirected   bool
	timer        *time.Timer
}

func New(cfg config.GateCfg, action Action, opts Options) *Gate {
	return &Gate{cfg: cfg, action: action, opts: opts, state: StateIdle}
}

// Confirmed reports whether input matches the confirmation word, ignoring case.
func Confirmed(word, input string) bool {
	return strings.EqualFold(input, word)
}

func (g *Gate) Open() Status {
	g.mu.Lock()
	g.open = true
	status := g.status()
	g.mu.Unlock()

	g.notify(status)
	return status
}

// Cancel closes the dialog. It is ignored unless the gate is idle.
func (g *Gate) Cancel() bool {
	g.mu.Lock()
	if g.state != StateIdle {
		g.mu.Unlock()
		return false
	}
	g.open = false
	status := g.status()
	g.mu.Unlock()

	g.notify(status)
	return true
}

// Input updates the typed confirmation. It is ignored unless the gate is idle.
func (g *Gate) Input(text string) bool {
	g.mu.Lock()
	if g.state != StateIdle {
		g.mu.Unlock()
		return false
	}
	g.confirmation = text
	status := g.status()
	g.mu.Unlock()

	g.notify(status)
	return true
}

// Submit starts the action when the dialog is open, the gate is idle and
// the confirmation matches. The action runs with ctx in the background.
func (g *Gate) Submit(ctx context.Context) error {
	g.mu.Lock()
	switch {
	case !g.open:
		g.mu.Unlock()
		return ErrClosed
	case g.state != StateIdle:
		g.mu.Unlock()
		return ErrBusy
	case !Confirmed(g.cfg.Confirmation, g.confirmation):
		g.mu.Unlock()
		return ErrNotConfirmed
	}

	g.state = StateRequesting
	g.message = ""
	status := g.status()
	g.mu.Unlock()

	g.notify(status)
	go g.run(ctx)
	return nil
}

func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status()
}

// Stop cancels a scheduled redirect or reset.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
}

func (g *Gate) run(ctx context.Context) {
	err := g.action(ctx)

	g.mu.Lock()
	if err == nil {
		g.state = StateSuccess
		g.timer = time.AfterFunc(g.cfg.SuccessDelay, g.redirect)
	} else {
		g.state = StateFailure
		g.message = errs.Display(err)
		g.timer = time.AfterFunc(g.cfg.FailureDelay, g.reset)
	}
	status := g.status()
	g.mu.Unlock()

	g.notify(status)
}

func (g *Gate) redirect() {
	g.mu.Lock()
	g.redirected = true
	g.mu.Unlock()

	if g.opts.OnRedirect != nil {
		g.opts.OnRedirect(g.cfg.RedirectURL)
	}
}

func (g *Gate) reset() {
	g.mu.Lock()
	g.state = StateIdle
	g.open = false
	g.message = ""
	status := g.status()
	g.mu.Unlock()

	g.notify(status)
}

func (g *Gate) status() Status {
	idle := g.state == StateIdle
	status := Status{
		Open:          g.open,
		State:         g.state,
		Confirmation:  g.confirmation,
		DeleteEnabled: idle && g.open && Confirmed(g.cfg.Confirmation, g.confirmation),
		CancelEnabled: idle,
		Message:       g.message,
	}
	if g.redirected {
		status.RedirectURL = g.cfg.RedirectURL
	}
	return status
}

func (g *Gate) notify(status Status) {
	if g.opts.OnChange != nil {
		g.opts.OnChange(status)
	}
}
