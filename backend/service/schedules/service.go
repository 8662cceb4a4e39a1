package schedules

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // 容器内可能没有系统时区库

	"github.com/robfig/cron/v3"

	"boardhub/backend/domain"
	"boardhub/backend/repository"
)

// 标准 5 段表达式，另外支持 @daily / @every 1h 这类描述符
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type Service struct {
	repo repository.ScheduleRepository
	now  func() time.Time
}

func NewService(repo repository.ScheduleRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, channel domain.Channel) ([]domain.Schedule, error) {
	if channel == "" {
		return s.repo.List(ctx)
	}
	if !channel.Valid() {
		return nil, fmt.Errorf("%w: channel %q is not supported", repository.ErrInvalidData, channel)
	}
	return s.repo.ListByChannel(ctx, channel)
}

func (s *Service) Get(ctx context.Context, id string) (domain.Schedule, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, sched domain.Schedule) (domain.Schedule, error) {
	sched, err := s.prepare(sched)
	if err != nil {
		return domain.Schedule{}, err
	}
	sched.ID = ""
	sched.LastRunAt = nil
	return s.repo.Create(ctx, sched)
}

func (s *Service) Update(ctx context.Context, id string, sched domain.Schedule) (domain.Schedule, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return domain.Schedule{}, err
	}
	sched, err := s.prepare(sched)
	if err != nil {
		return domain.Schedule{}, err
	}
	return s.repo.Update(ctx, id, sched)
}

func (s *Service) SetEnabled(ctx context.Context, id string, enabled bool) (domain.Schedule, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Schedule{}, err
	}
	current.Enabled = enabled
	current, err = s.prepare(current)
	if err != nil {
		return domain.Schedule{}, err
	}
	return s.repo.Update(ctx, id, current)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// prepare 校验并计算下一次运行时间（停用时为空）
func (s *Service) prepare(sched domain.Schedule) (domain.Schedule, error) {
	sched.Name = strings.TrimSpace(sched.Name)
	sched.CronExpr = strings.TrimSpace(sched.CronExpr)
	sched.Timezone = strings.TrimSpace(sched.Timezone)
	sched.BoardID = strings.TrimSpace(sched.BoardID)

	if sched.Name == "" {
		return domain.Schedule{}, fmt.Errorf("%w: name is required", repository.ErrInvalidData)
	}
	if !sched.Channel.Valid() {
		return domain.Schedule{}, fmt.Errorf("%w: channel %q is not supported", repository.ErrInvalidData, sched.Channel)
	}
	if sched.Timezone == "" {
		sched.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("%w: timezone %q is invalid", repository.ErrInvalidData, sched.Timezone)
	}
	next, err := NextRun(sched.CronExpr, s.now().In(loc))
	if err != nil {
		return domain.Schedule{}, err
	}

	if sched.Enabled {
		utc := next.UTC()
		sched.NextRunAt = &utc
	} else {
		sched.NextRunAt = nil
	}
	return sched, nil
}

// NextRun 计算 after 之后的第一次触发时间（使用 after 的时区）
func NextRun(expr string, after time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, fmt.Errorf("%w: cron expression is required", repository.ErrInvalidData)
	}
	if strings.HasPrefix(expr, "TZ=") || strings.HasPrefix(expr, "CRON_TZ=") {
		return time.Time{}, fmt.Errorf("%w: use the timezone field instead of an inline TZ", repository.ErrInvalidData)
	}
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cron expression: %v", repository.ErrInvalidData, err)
	}
	next := schedule.Next(after)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("%w: cron expression never fires", repository.ErrInvalidData)
	}
	return next, nil
}
