package tasks

import (
	"context"
	"time"

	"boardhub/backend/logging"
)

// BoardSyncer 看板预热（由 boards 服务实现）
type BoardSyncer interface {
	Sync(ctx context.Context) error
}

type Scheduler struct {
	boards       BoardSyncer
	boardsPeriod time.Duration
	logger       logging.Logger
}

// NewScheduler period <= 0 时不启动看板预热
func NewScheduler(boards BoardSyncer, period time.Duration, logger logging.Logger) *Scheduler {
	return &Scheduler{
		boards:       boards,
		boardsPeriod: period,
		logger:       logging.OrDefault(logger).WithPrefix("tasks"),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s == nil {
		return
	}

	if s.boards != nil && s.boardsPeriod > 0 {
		go s.runWithTicker(ctx, s.boardsPeriod, "boards warm-up", func(ctx context.Context) {
			if err := s.boards.Sync(ctx); err != nil {
				s.logger.Warn("boards warm-up failed", "err", err)
			}
		})
	}
}

func (s *Scheduler) runWithTicker(ctx context.Context, interval time.Duration, name string, fn func(context.Context)) {
	if interval <= 0 {
		interval = time.Minute
	}

	// 启动后先跑一次，避免“等待一个周期才生效”。
	s.safeRun(ctx, name, fn)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.safeRun(ctx, name, fn)
		}
	}
}

func (s *Scheduler) safeRun(ctx context.Context, name string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked", "task", name, "panic", r)
		}
	}()
	fn(ctx)
}
