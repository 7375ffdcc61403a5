package dispatcher

import (
	"sync/atomic"
	"time"

	"github.com/openquery/dispatcher/internal"
)

const (
	stopped = iota
	started
)

// lcBase is a reusable start/stop lifecycle guard shared by Dispatcher and
// SpoolJanitor: both must start at most once and wait (bounded by a
// timeout) for background work to drain on Stop.
type lcBase struct {
	state atomic.Int32
}

func (lb *lcBase) tryStart() error {
	if !lb.state.CompareAndSwap(stopped, started) {
		return ErrDoubleStarted
	}
	return nil
}

func (lb *lcBase) tryStop(timeout time.Duration, df internal.DoneFunc) error {
	if !lb.state.CompareAndSwap(started, stopped) {
		return ErrDoubleStopped
	}
	done := df()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}
