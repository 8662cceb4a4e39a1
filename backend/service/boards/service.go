package boards

import (
	"context"
	"errors"
	"fmt"

	"boardhub/backend/domain"
	"boardhub/backend/logging"
	"boardhub/backend/repository"
	"boardhub/backend/service/monday"
)

const cacheKey = "boards"

// Fetcher 看板数据源（Monday 客户端）
type Fetcher interface {
	Boards(ctx context.Context) ([]domain.Board, error)
}

// Service 看板读取：读时刷新，Monday 不可用时回落到库中旧数据
type Service struct {
	repo    repository.BoardRepository
	fetcher Fetcher
	cache   *monday.Cache[[]domain.Board]
	logger  logging.Logger
}

func NewService(repo repository.BoardRepository, fetcher Fetcher, cache *monday.Cache[[]domain.Board], logger logging.Logger) *Service {
	if cache == nil {
		cache = monday.NewCache[[]domain.Board](0, 0)
	}
	return &Service{
		repo:    repo,
		fetcher: fetcher,
		cache:   cache,
		logger:  logging.OrDefault(logger),
	}
}

// List 返回全部看板。refresh 为 true 时跳过缓存强制拉取。
func (s *Service) List(ctx context.Context, refresh bool) ([]domain.Board, error) {
	if !refresh {
		if boards, ok := s.cache.Get(cacheKey); ok {
			return boards, nil
		}
	}

	boards, err := s.cache.Refresh(ctx, cacheKey, s.sync)
	if err == nil {
		return boards, nil
	}

	stale, repoErr := s.repo.List(ctx)
	if repoErr != nil {
		return nil, repoErr
	}
	if len(stale) == 0 {
		return nil, err
	}
	s.logger.Warn("monday refresh failed, serving cached boards", "err", err, "count", len(stale))
	return stale, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Board, error) {
	boards, err := s.List(ctx, false)
	if err != nil && !errors.Is(err, monday.ErrUpstream) {
		return domain.Board{}, err
	}
	for _, b := range boards {
		if b.ID == id {
			return b, nil
		}
	}
	board, repoErr := s.repo.Get(ctx, id)
	if repoErr == nil {
		return board, nil
	}
	if err != nil {
		return domain.Board{}, err
	}
	return domain.Board{}, repoErr
}

// Sync 强制从 Monday 拉取（后台任务使用）
func (s *Service) Sync(ctx context.Context) error {
	_, err := s.cache.Refresh(ctx, cacheKey, s.sync)
	return err
}

func (s *Service) sync(ctx context.Context) ([]domain.Board, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("%w: monday client not configured", monday.ErrUpstream)
	}
	fetched, err := s.fetcher.Boards(ctx)
	if err != nil {
		return nil, err
	}
	boards, err := s.repo.ReplaceAll(ctx, fetched)
	if err != nil {
		return nil, fmt.Errorf("store boards: %w", err)
	}
	s.logger.Debug("boards synced", "count", len(boards))
	return boards, nil
}
