package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
)

// stateStore wraps the timer repo with a last-known-good cache and publishes a change
// notification after every successful write.
type stateStore struct {
	repo focusmomo.TimerStateRepo
	tx   transactor.Transactor
	bc   focusmomo.Broadcaster
	l    log.Logger

	mu     sync.RWMutex
	cached *focusmomo.TimerState
}

func newStateStore(repo focusmomo.TimerStateRepo, tx transactor.Transactor, bc focusmomo.Broadcaster, logger log.Logger) *stateStore {
	return &stateStore{
		repo: repo,
		tx:   tx,
		bc:   bc,
		l:    logger,
	}
}

// Get reads the durable record. When the read fails, or the record is older than the
// cache, the cached state is returned instead. ErrNotFound is returned only when nothing
// was ever stored or cached.
func (s *stateStore) Get(ctx context.Context) (focusmomo.TimerState, error) {
	state, err := s.repo.GetTimerState(ctx)
	if err == nil {
		// a failed write leaves the cache ahead of the durable record
		if cached, ok := s.Cached(); ok && cached.Revision > state.Revision {
			return cached, nil
		}
		s.setCache(state)
		return state, nil
	}

	if cached, ok := s.Cached(); ok {
		if !errors.Is(err, focusmomo.ErrNotFound) {
			s.l.Warn("failed to read timer state, using cached", "err", err)
		}
		return cached, nil
	}
	return focusmomo.TimerState{}, err
}

func (s *stateStore) Cached() (focusmomo.TimerState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil {
		return focusmomo.TimerState{}, false
	}
	return s.cached.Clone(), true
}

// Save persists state. The cache takes state even when the write fails.
func (s *stateStore) Save(ctx context.Context, state focusmomo.TimerState) error {
	s.setCache(state)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SaveTimerState(ctx, state)
	})
	if err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}

	if err := s.bc.Publish(focusmomo.TopicStorageChanged, state); err != nil {
		s.l.Warn("failed to publish storage change", "err", err)
	}
	return nil
}

func (s *stateStore) setCache(state focusmomo.TimerState) {
	c := state.Clone()
	s.mu.Lock()
	s.cached = &c
	s.mu.Unlock()
}
