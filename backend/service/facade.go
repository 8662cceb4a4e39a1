package service

import (
	"context"
	"io"
	"os"
	"time"

	"boardhub/backend/domain"
	"boardhub/backend/logging"
	"boardhub/backend/service/auth"
	"boardhub/backend/service/boards"
	"boardhub/backend/service/files"
	"boardhub/backend/service/schedules"
	"boardhub/backend/service/subscribers"
)

// Facade 服务门面（API 聚合层）
type Facade struct {
	auth        *auth.Service
	boards      *boards.Service
	subscribers *subscribers.Service
	schedules   *schedules.Service
	files       *files.Service

	appLogPath      string
	appLogStartedAt time.Time
}

// NewFacade 创建门面服务
func NewFacade(
	authSvc *auth.Service,
	boardSvc *boards.Service,
	subscriberSvc *subscribers.Service,
	scheduleSvc *schedules.Service,
	fileSvc *files.Service,
) *Facade {
	return &Facade{
		auth:        authSvc,
		boards:      boardSvc,
		subscribers: subscriberSvc,
		schedules:   scheduleSvc,
		files:       fileSvc,
	}
}

func (f *Facade) SetAppLog(path string, startedAt time.Time) {
	f.appLogPath = path
	f.appLogStartedAt = startedAt
}

// ==================== Auth ====================

func (f *Facade) Login(ctx context.Context, email, password string) (auth.Session, error) {
	return f.auth.Login(ctx, email, password)
}

func (f *Facade) Authenticate(ctx context.Context, token string) (auth.Claims, error) {
	return f.auth.Authenticate(ctx, token)
}

func (f *Facade) CurrentUser(ctx context.Context, claims auth.Claims) (domain.User, error) {
	return f.auth.GetUser(ctx, claims.Subject)
}

func (f *Facade) CreateUser(ctx context.Context, email, password string, role domain.UserRole) (domain.User, error) {
	return f.auth.CreateUser(ctx, email, password, role)
}

func (f *Facade) ListUsers(ctx context.Context) ([]domain.User, error) {
	return f.auth.ListUsers(ctx)
}

// ==================== Boards ====================

func (f *Facade) ListBoards(ctx context.Context, refresh bool) ([]domain.Board, error) {
	return f.boards.List(ctx, refresh)
}

func (f *Facade) GetBoard(ctx context.Context, id string) (domain.Board, error) {
	return f.boards.Get(ctx, id)
}

// SyncBoards 后台预热用
func (f *Facade) SyncBoards(ctx context.Context) error {
	return f.boards.Sync(ctx)
}

// ==================== Subscribers ====================

func (f *Facade) ListBoardSubscribers(ctx context.Context, boardID string, refresh bool) ([]domain.Subscriber, error) {
	if _, err := f.boards.Get(ctx, boardID); err != nil {
		return nil, err
	}
	return f.subscribers.ListByBoard(ctx, boardID, refresh)
}

func (f *Facade) ListSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	return f.subscribers.List(ctx)
}

func (f *Facade) GetSubscriber(ctx context.Context, id string) (domain.Subscriber, error) {
	return f.subscribers.Get(ctx, id)
}

func (f *Facade) CreateSubscriber(ctx context.Context, sub domain.Subscriber) (domain.Subscriber, error) {
	return f.subscribers.Create(ctx, sub)
}

func (f *Facade) UpdateSubscriber(ctx context.Context, id string, sub domain.Subscriber) (domain.Subscriber, error) {
	return f.subscribers.Update(ctx, id, sub)
}

func (f *Facade) DeleteSubscriber(ctx context.Context, id string) error {
	return f.subscribers.Delete(ctx, id)
}

// ==================== Schedules ====================

func (f *Facade) ListSchedules(ctx context.Context, channel domain.Channel) ([]domain.Schedule, error) {
	return f.schedules.List(ctx, channel)
}

func (f *Facade) GetSchedule(ctx context.Context, id string) (domain.Schedule, error) {
	return f.schedules.Get(ctx, id)
}

func (f *Facade) CreateSchedule(ctx context.Context, sched domain.Schedule) (domain.Schedule, error) {
	return f.schedules.Create(ctx, sched)
}

func (f *Facade) UpdateSchedule(ctx context.Context, id string, sched domain.Schedule) (domain.Schedule, error) {
	return f.schedules.Update(ctx, id, sched)
}

func (f *Facade) SetScheduleEnabled(ctx context.Context, id string, enabled bool) (domain.Schedule, error) {
	return f.schedules.SetEnabled(ctx, id, enabled)
}

func (f *Facade) DeleteSchedule(ctx context.Context, id string) error {
	return f.schedules.Delete(ctx, id)
}

// ==================== Files ====================

func (f *Facade) UploadFile(ctx context.Context, name string, r io.Reader) (domain.StoredFile, error) {
	return f.files.Save(ctx, name, r)
}

// OpenFile 调用方负责关闭返回的文件
func (f *Facade) OpenFile(ctx context.Context, name string) (*os.File, domain.StoredFile, error) {
	return f.files.Open(ctx, name)
}

func (f *Facade) ListFiles(ctx context.Context) ([]domain.StoredFile, error) {
	return f.files.List(ctx)
}

func (f *Facade) DeleteFile(ctx context.Context, name string) error {
	return f.files.Delete(ctx, name)
}

// ==================== App log ====================

func (f *Facade) GetAppLogs(since int64) logging.TailSnapshot {
	return logging.TailSince(f.appLogPath, since, f.appLogStartedAt)
}
