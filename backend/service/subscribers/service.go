package subscribers

import (
	"context"
	"fmt"
	"strings"

	"boardhub/backend/domain"
	"boardhub/backend/logging"
	"boardhub/backend/repository"
	"boardhub/backend/service/monday"
)

// Fetcher 订阅者数据源（Monday 客户端）
type Fetcher interface {
	BoardSubscribers(ctx context.Context, boardID string) ([]domain.Subscriber, error)
}

type Service struct {
	repo    repository.SubscriberRepository
	fetcher Fetcher
	cache   *monday.Cache[[]domain.Subscriber]
	logger  logging.Logger
}

func NewService(repo repository.SubscriberRepository, fetcher Fetcher, cache *monday.Cache[[]domain.Subscriber], logger logging.Logger) *Service {
	if cache == nil {
		cache = monday.NewCache[[]domain.Subscriber](0, 0)
	}
	return &Service{
		repo:    repo,
		fetcher: fetcher,
		cache:   cache,
		logger:  logging.OrDefault(logger),
	}
}

// ListByBoard 返回看板的全部订阅者（monday + 手动）。
// 缓存过期或 refresh 为 true 时从 Monday 刷新；刷新失败回落到库中数据。
func (s *Service) ListByBoard(ctx context.Context, boardID string, refresh bool) ([]domain.Subscriber, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return nil, fmt.Errorf("%w: board id is required", repository.ErrInvalidID)
	}
	if !refresh {
		if subs, ok := s.cache.Get(boardID); ok {
			return subs, nil
		}
	}

	subs, err := s.cache.Refresh(ctx, boardID, func(ctx context.Context) ([]domain.Subscriber, error) {
		return s.sync(ctx, boardID)
	})
	if err == nil {
		return subs, nil
	}

	stale, repoErr := s.repo.ListByBoard(ctx, boardID)
	if repoErr != nil {
		return nil, repoErr
	}
	if len(stale) == 0 {
		return nil, err
	}
	s.logger.Warn("monday refresh failed, serving stored subscribers", "board", boardID, "err", err)
	return stale, nil
}

func (s *Service) sync(ctx context.Context, boardID string) ([]domain.Subscriber, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("%w: monday client not configured", monday.ErrUpstream)
	}
	fetched, err := s.fetcher.BoardSubscribers(ctx, boardID)
	if err != nil {
		return nil, err
	}
	subs, err := s.repo.ReplaceMondayForBoard(ctx, boardID, fetched)
	if err != nil {
		return nil, fmt.Errorf("store subscribers: %w", err)
	}
	return subs, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Subscriber, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (domain.Subscriber, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, sub domain.Subscriber) (domain.Subscriber, error) {
	sub = normalize(sub)
	if err := validate(sub); err != nil {
		return domain.Subscriber{}, err
	}
	sub.ID = ""
	sub.MondayID = ""
	sub.Source = domain.SourceManual
	sub.SyncedAt = nil
	created, err := s.repo.Create(ctx, sub)
	if err != nil {
		return domain.Subscriber{}, err
	}
	s.cache.Invalidate(created.BoardID)
	return created, nil
}

// Update 修改手动添加的订阅者；monday 来源的订阅者只读
func (s *Service) Update(ctx context.Context, id string, sub domain.Subscriber) (domain.Subscriber, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Subscriber{}, err
	}
	if current.ReadOnly() {
		return domain.Subscriber{}, fmt.Errorf("%w: monday subscriber is read-only", repository.ErrInvalidData)
	}
	sub = normalize(sub)
	if err := validate(sub); err != nil {
		return domain.Subscriber{}, err
	}
	updated, err := s.repo.Update(ctx, id, sub)
	if err != nil {
		return domain.Subscriber{}, err
	}
	s.cache.Invalidate(current.BoardID)
	s.cache.Invalidate(updated.BoardID)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.ReadOnly() {
		return fmt.Errorf("%w: monday subscriber is read-only", repository.ErrInvalidData)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(current.BoardID)
	return nil
}

func normalize(sub domain.Subscriber) domain.Subscriber {
	sub.BoardID = strings.TrimSpace(sub.BoardID)
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	sub.Phone = strings.TrimSpace(sub.Phone)
	return sub
}

func validate(sub domain.Subscriber) error {
	if sub.BoardID == "" {
		return fmt.Errorf("%w: boardId is required", repository.ErrInvalidData)
	}
	if sub.Name == "" && sub.Email == "" {
		return fmt.Errorf("%w: name or email is required", repository.ErrInvalidData)
	}
	if sub.Email != "" && !strings.Contains(sub.Email, "@") {
		return fmt.Errorf("%w: email is invalid", repository.ErrInvalidData)
	}
	return nil
}
