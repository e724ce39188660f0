package gate

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"geoconsole/config"
	"geoconsole/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.GateCfg {
	cfg := config.GateCfg{}.Default()
	cfg.SuccessDelay = 80 * time.Millisecond
	cfg.FailureDelay = 80 * time.Millisecond
	return cfg
}

func TestConfirmed(t *testing.T) {
	assert.True(t, Confirmed("delete", "delete"))
	assert.True(t, Confirmed("delete", "DELETE"))
	assert.True(t, Confirmed("delete", "DeLeTe"))
	assert.False(t, Confirmed("delete", "delete "))
	assert.False(t, Confirmed("delete", "remove"))
	assert.False(t, Confirmed("delete", ""))
}

func TestGate_RequiresConfirmation(t *testing.T) {
	var calls int32
	g := New(testConfig(), func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, Options{})

	assert.Equal(t, ErrClosed, g.Submit(context.Background()))

	g.Open()
	g.Input("remove")
	assert.False(t, g.Status().DeleteEnabled)
	assert.Equal(t, ErrNotConfirmed, g.Submit(context.Background()))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestGate_SuccessRedirects(t *testing.T) {
	release := make(chan struct{})
	redirected := make(chan string, 1)
	g := New(testConfig(), func(context.Context) error {
		<-release
		return nil
	}, Options{OnRedirect: func(url string) { redirected <- url }})

	g.Open()
	g.Input("Delete")
	require.True(t, g.Status().DeleteEnabled)
	require.NoError(t, g.Submit(context.Background()))

	status := g.Status()
	assert.Equal(t, StateRequesting, status.State)
	assert.False(t, status.DeleteEnabled)
	assert.False(t, status.CancelEnabled)
	assert.False(t, g.Input("something else"))
	assert.False(t, g.Cancel())
	assert.Equal(t, ErrBusy, g.Submit(context.Background()))

	close(release)
	require.Eventually(t, func() bool { return g.Status().State == StateSuccess }, time.Second, time.Millisecond)

	select {
	case url := <-redirected:
		assert.Equal(t, "/", url)
	case <-time.After(time.Second):
		t.Fatal("redirect did not fire")
	}
	assert.Equal(t, "/", g.Status().RedirectURL)
}

func TestGate_FailureResets(t *testing.T) {
	var calls int32
	g := New(testConfig(), func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errs.FromStatus(http.StatusForbidden)
	}, Options{})

	g.Open()
	g.Input("delete")
	require.NoError(t, g.Submit(context.Background()))

	require.Eventually(t, func() bool { return g.Status().State == StateFailure }, time.Second, time.Millisecond)
	assert.Equal(t, "You are not authorized to do this operation.", g.Status().Message)

	require.Eventually(t, func() bool { return g.Status().State == StateIdle }, time.Second, time.Millisecond)
	status := g.Status()
	assert.False(t, status.Open)
	assert.Empty(t, status.Message)

	// no automatic retry
	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGate_Cancel(t *testing.T) {
	g := New(testConfig(), func(context.Context) error { return nil }, Options{})

	g.Open()
	assert.True(t, g.Cancel())
	assert.False(t, g.Status().Open)
}
