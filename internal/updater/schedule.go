package updater

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSchedule = "@every 12h"

// Scheduler runs update checks on a cron spec and keeps the latest result.
type Scheduler struct {
	client *Client
	logger *zap.Logger
	cron   *cron.Cron

	mu   sync.RWMutex
	last *Release
}

func NewScheduler(client *Client, spec string, logger *zap.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{client: client, logger: logger, cron: cron.New()}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid update schedule %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce performs one check and records it.
func (s *Scheduler) RunOnce(ctx context.Context) Release {
	rel := s.client.Check(ctx)
	s.mu.Lock()
	s.last = &rel
	s.mu.Unlock()
	if rel.HasUpdate {
		s.logger.Info("update available",
			zap.String("current", rel.CurrentVersion),
			zap.String("remote", rel.RemoteVersion),
			zap.String("package", rel.Package))
	} else {
		s.logger.Debug("no update", zap.String("version", rel.CurrentVersion))
	}
	return rel
}

func (s *Scheduler) Last() (Release, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Release{}, false
	}
	return *s.last, true
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running check.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
