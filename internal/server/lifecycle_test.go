package server

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type blockingService struct {
	started atomic.Bool
	stopped atomic.Bool
}

func (s *blockingService) Start() error {
	s.started.Store(true)
	for !s.stopped.Load() {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func (s *blockingService) Stop() {
	s.stopped.Store(true)
}

func TestLifecycle_StartsAndStopsServices(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))

	reaper := &blockingService{}
	listener := &blockingService{}
	lc.Add("reaper", reaper)
	lc.Add("http", listener)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for !reaper.started.Load() || !listener.started.Load() {
		select {
		case <-deadline:
			t.Fatal("services did not start in time")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}

	assert.True(t, reaper.stopped.Load())
	assert.True(t, listener.stopped.Load())
}

type failingService struct {
	stopped atomic.Bool
}

func (s *failingService) Start() error { return assert.AnError }
func (s *failingService) Stop()        { s.stopped.Store(true) }

func TestLifecycle_ServiceFailureStopsEverything(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))

	healthy := &blockingService{}
	broken := &failingService{}
	lc.Add("http", healthy)
	lc.Add("broken", broken)

	done := make(chan error, 1)
	go func() { done <- lc.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down after service failure")
	}

	assert.True(t, healthy.stopped.Load())
	assert.True(t, broken.stopped.Load())
}
