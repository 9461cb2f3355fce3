package main

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
)

// installCancelOnInterrupt sets cancelled once SIGINT arrives, the only
// signal muton handles, per spec.md's cancellation model. The returned
// stop function should be deferred to release the underlying signal
// notification.
func installCancelOnInterrupt(cancelled *atomic.Bool) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			log.Warn().Msg("received interrupt, stopping the in-flight test and cancelling the campaign")
			cancelled.Store(true)
		case <-done:
		}
	}()
	return func() {
		close(done)
		signal.Stop(ch)
	}
}
