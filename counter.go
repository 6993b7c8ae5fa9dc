package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// counter keeps the number of export requests per record format. It is
// saved to a file so totals survive restarts.
type counter struct {
	mu     sync.Mutex
	values map[string]int64
}

func newCounter() *counter {
	return &counter{values: make(map[string]int64)}
}

func (s *counter) Get(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *counter) Set(key string, newValue int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = newValue
}

func (s *counter) Incr(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key]++
	return s.values[key]
}

// Snapshot copies the current counts
func (s *counter) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// readCount loads saved counts. A missing file starts from zero.
func (s *counter) readCount(path string) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var saved map[string]int64
	if err := json.Unmarshal(raw, &saved); err != nil {
		return err
	}
	for k, v := range saved {
		s.Set(k, v)
	}
	return nil
}

func (s *counter) writeCount(path string) error {
	writeMe, err := json.Marshal(s.Snapshot())
	if err != nil {
		return err
	}
	return os.WriteFile(path, writeMe, 0644)
}

// persist saves the counts every interval and once more when ctx ends
func (s *counter) persist(ctx context.Context, path string, interval time.Duration, log logrus.FieldLogger) {
	writeTicker := time.NewTicker(interval)
	defer writeTicker.Stop()

	for {
		select {
		case <-writeTicker.C:
			if err := s.writeCount(path); err != nil {
				log.WithError(err).Warn("saving request counts")
			}
		case <-ctx.Done():
			if err := s.writeCount(path); err != nil {
				log.WithError(err).Warn("saving request counts")
			}
			return
		}
	}
}
