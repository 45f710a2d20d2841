package alerts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	domainAlert "satdesk-manager/internal/domain/alert"
	"satdesk-manager/internal/logger"
)

// Publisher receives each completed scan. The MQTT publisher implements it;
// tests use a recording fake.
type Publisher interface {
	PublishAlerts(ctx context.Context, alerts []domainAlert.Alert) error
}

// Scheduler runs the alert scan on a fixed interval and hands the result to
// a publisher. Scan failures are logged and the loop keeps going.
type Scheduler struct {
	engine    *Engine
	publisher Publisher
	interval  time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(engine *Engine, publisher Publisher, interval time.Duration) *Scheduler {
	return &Scheduler{
		engine:    engine,
		publisher: publisher,
		interval:  interval,
	}
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	logger.Info("Alert scheduler started",
		zap.Duration("interval", s.interval),
	)
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	logger.Info("Alert scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First scan right away so a fresh process is not blind for a full
	// interval.
	s.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

func (s *Scheduler) scanOnce(ctx context.Context) {
	alerts, err := s.engine.Scan(ctx, time.Now())
	if err != nil {
		logger.Error("Alert scan failed", zap.Error(err))
		return
	}

	logger.Debug("Alert scan completed",
		zap.Int("alerts", len(alerts)),
	)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAlerts(ctx, alerts); err != nil {
		logger.Error("Failed to publish alerts", zap.Error(err))
	}
}
