package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"boardhub/backend/domain"
	"boardhub/backend/logging"
	"boardhub/backend/repository"
	"boardhub/backend/repository/events"
)

type Config struct {
	Path   string
	Logger logging.Logger
	// Debug 打开后记录每条 SQL
	Debug bool
}

// Store SQLite 存储引擎（gorm）
type Store struct {
	db       *gorm.DB
	eventBus *events.Bus
}

// Open 打开数据库并执行自动迁移
func Open(cfg Config, eventBus *events.Bus) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	level := gormLogger.Warn
	if cfg.Debug {
		level = gormLogger.Info
	}
	gormLog := gormLogger.New(newGormLogger(logging.OrDefault(cfg.Logger)), gormLogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		IgnoreRecordNotFoundError: true,
		LogLevel:                  level,
	})

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.User{}, &domain.Board{}, &domain.Subscriber{}, &domain.Schedule{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db, eventBus: eventBus}, nil
}

// DB 返回带 ctx 的会话
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PublishEvent 发布事件（异步，应在事务外调用）
func (s *Store) PublishEvent(event events.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(event)
	}
}

// gormLogAdapter 把 gorm 的 Printf 输出转到 charm 日志器
type gormLogAdapter struct {
	logger logging.Logger
}

func newGormLogger(logger logging.Logger) *gormLogAdapter {
	return &gormLogAdapter{logger: logger}
}

func (g *gormLogAdapter) Printf(format string, args ...any) {
	g.logger.Debug(fmt.Sprintf(format, args...), "component", "gorm")
}

// Repositories 基于同一个 Store 组装全部仓储
func (s *Store) Repositories() repository.Repositories {
	return repository.NewRepositories(NewUserRepo(s), NewBoardRepo(s), NewSubscriberRepo(s), NewScheduleRepo(s))
}
