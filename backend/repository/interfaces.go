package repository

import (
	"context"
	"time"

	"boardhub/backend/domain"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	Get(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	// 登录时间更新
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// BoardRepository 看板缓存仓储接口
type BoardRepository interface {
	Get(ctx context.Context, id string) (domain.Board, error)
	List(ctx context.Context) ([]domain.Board, error)

	// 整体替换（用于 Monday 同步），不在列表中的看板会被删除
	ReplaceAll(ctx context.Context, boards []domain.Board) ([]domain.Board, error)
}

// SubscriberRepository 订阅者仓储接口
type SubscriberRepository interface {
	// 基础 CRUD
	Get(ctx context.Context, id string) (domain.Subscriber, error)
	List(ctx context.Context) ([]domain.Subscriber, error)
	Create(ctx context.Context, sub domain.Subscriber) (domain.Subscriber, error)
	Update(ctx context.Context, id string, sub domain.Subscriber) (domain.Subscriber, error)
	Delete(ctx context.Context, id string) error

	// 按看板查询/批量替换 monday 来源的订阅者（手动添加的保留）
	ListByBoard(ctx context.Context, boardID string) ([]domain.Subscriber, error)
	ReplaceMondayForBoard(ctx context.Context, boardID string, subs []domain.Subscriber) ([]domain.Subscriber, error)
}

// ScheduleRepository 发送计划仓储接口
type ScheduleRepository interface {
	// 基础 CRUD
	Get(ctx context.Context, id string) (domain.Schedule, error)
	List(ctx context.Context) ([]domain.Schedule, error)
	Create(ctx context.Context, sched domain.Schedule) (domain.Schedule, error)
	Update(ctx context.Context, id string, sched domain.Schedule) (domain.Schedule, error)
	Delete(ctx context.Context, id string) error

	// 按渠道查询
	ListByChannel(ctx context.Context, channel domain.Channel) ([]domain.Schedule, error)
}

// Repositories 聚合所有仓储的容器接口
type Repositories interface {
	User() UserRepository
	Board() BoardRepository
	Subscriber() SubscriberRepository
	Schedule() ScheduleRepository
}

// RepositoriesImpl 仓储容器实现
type RepositoriesImpl struct {
	UserRepo       UserRepository
	BoardRepo      BoardRepository
	SubscriberRepo SubscriberRepository
	ScheduleRepo   ScheduleRepository
}

// 实现 Repositories 接口
func (r *RepositoriesImpl) User() UserRepository             { return r.UserRepo }
func (r *RepositoriesImpl) Board() BoardRepository           { return r.BoardRepo }
func (r *RepositoriesImpl) Subscriber() SubscriberRepository { return r.SubscriberRepo }
func (r *RepositoriesImpl) Schedule() ScheduleRepository     { return r.ScheduleRepo }

func NewRepositories(users UserRepository, boards BoardRepository, subs SubscriberRepository, schedules ScheduleRepository) *RepositoriesImpl {
	return &RepositoriesImpl{
		UserRepo:       users,
		BoardRepo:      boards,
		SubscriberRepo: subs,
		ScheduleRepo:   schedules,
	}
}
