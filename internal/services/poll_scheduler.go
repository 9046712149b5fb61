package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// PollScheduler runs ingestion on a fixed interval
type PollScheduler struct {
	ingest     *IngestService
	logger     *zap.Logger
	interval   time.Duration
	maxResults int
	stopChan   chan struct{}
	running    bool
	mu         sync.Mutex
	polling    sync.Mutex // prevents overlapping poll cycles
}

// NewPollScheduler creates a new poll scheduler
func NewPollScheduler(ingest *IngestService, logger *zap.Logger, interval time.Duration, maxResults int) *PollScheduler {
	return &PollScheduler{
		ingest:     ingest,
		logger:     logger,
		interval:   interval,
		maxResults: maxResults,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the automatic polling process
func (s *PollScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("poll scheduler starting", zap.Duration("interval", s.interval))

	go func() {
		// Wait a moment after startup so the server is fully ready before
		// the first poll
		select {
		case <-time.After(10 * time.Second):
			s.pollOnce()
		case <-s.stopChan:
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.pollOnce()
			case <-s.stopChan:
				s.logger.Info("poll scheduler stopping")
				return
			}
		}
	}()
}

// Stop stops the automatic polling process
func (s *PollScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stopChan)
	s.running = false
}

// pollOnce runs one ingestion cycle with retry
func (s *PollScheduler) pollOnce() {
	// Skip this cycle if the previous one is still running
	if !s.polling.TryLock() {
		s.logger.Warn("previous poll still running, skipping cycle")
		return
	}
	defer s.polling.Unlock()

	const maxRetries = 2
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			s.logger.Info("retrying ingestion",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))

			select {
			case <-time.After(backoff):
			case <-s.stopChan:
				return
			}
		}

		result, err := s.ingest.FetchNew(s.maxResults)
		if err == nil {
			if result.Inserted > 0 {
				s.logger.Info("poll cycle completed",
					zap.Int("inserted", result.Inserted),
					zap.Int("skipped", result.Skipped),
					zap.Int("failed", result.Failed))
			}
			return
		}
		lastErr = err
	}

	s.logger.Error("poll cycle failed after retries", zap.Error(lastErr))
}
