package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type Logger = *log.Logger

var fallback = New("info", os.Stderr)

// New 创建带时间戳的 charm 日志器；未知级别按 info 处理。
func New(level string, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
	})
	logger.SetLevel(ParseLevel(level))
	return logger
}

func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// OrDefault 保证组件拿到的日志器非 nil。
func OrDefault(logger Logger) Logger {
	if logger == nil {
		return fallback
	}
	return logger
}

// AppLog 应用日志文件（供 /app/logs 按偏移量读取）
type AppLog struct {
	Path      string
	StartedAt time.Time

	file *os.File
}

// OpenAppLog 轮转上一次的日志后打开 path，写入启动分隔行。
// retain > 0 时清理早于 retain 的历史日志。
func OpenAppLog(path string, retain time.Duration) (*AppLog, error) {
	startedAt := time.Now()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if err := rotate(path, retain, startedAt); err != nil {
		// 轮转失败不影响启动，下面会截断重写
		fmt.Fprintf(os.Stderr, "[AppLog] %v\n", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(f, "----- app start %s pid=%d -----\n", startedAt.Format(time.RFC3339Nano), os.Getpid())
	return &AppLog{Path: path, StartedAt: startedAt, file: f}, nil
}

// Writer 同时写 stderr 与日志文件。
func (a *AppLog) Writer() io.Writer {
	if a == nil || a.file == nil {
		return os.Stderr
	}
	return io.MultiWriter(os.Stderr, a.file)
}

func (a *AppLog) Close() error {
	if a == nil || a.file == nil {
		return nil
	}
	return a.file.Close()
}
