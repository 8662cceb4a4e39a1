package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"boardhub/backend/domain"
	"boardhub/backend/logging"
	"boardhub/backend/pathsec"
	"boardhub/backend/repository/events"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrTooLarge     = errors.New("file too large")
)

const (
	opUpload   = "upload"
	opDownload = "download"
	opDelete   = "delete"
	opList     = "list"

	// 原名一次，随机后缀四次
	maxNameAttempts = 5
)

type Config struct {
	Root     string
	MaxBytes int64
}

// Service 上传目录的文件读写。所有用户提供的文件名都经过 pathsec 校验。
type Service struct {
	root      string
	maxBytes  int64
	observer  Observer
	bus       *events.Bus
	logger    logging.Logger
	// buildPath 默认 pathsec.BuildSafePath
	buildPath func(baseDir, userPath string) (string, error)
}

func NewService(cfg Config, observer Observer, bus *events.Bus, logger logging.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, fmt.Errorf("%w: upload directory is required", pathsec.ErrInvalidInput)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload directory: %w", err)
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		root:      root,
		maxBytes:  cfg.MaxBytes,
		observer:  observer,
		bus:       bus,
		logger:    logging.OrDefault(logger),
		buildPath: pathsec.BuildSafePath,
	}, nil
}

func (s *Service) Root() string { return s.root }

// EnsureRoot 创建上传目录（幂等，启动时调用一次）
func (s *Service) EnsureRoot() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}
	return nil
}

// Save 保存上传内容；重名时追加随机后缀，不覆盖已有文件。
func (s *Service) Save(_ context.Context, name string, r io.Reader) (file domain.StoredFile, err error) {
	started := time.Now()
	defer func() { s.observer.RecordOperation(opUpload, time.Since(started), file.Size, err) }()

	safeName, err := pathsec.Sanitize(name)
	if err != nil {
		return domain.StoredFile{}, err
	}

	var (
		f    *os.File
		path string
	)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		candidate := safeName
		if attempt > 0 {
			candidate = uniqueName(safeName)
		}
		path, err = s.resolve(opUpload, candidate)
		if err != nil {
			return domain.StoredFile{}, err
		}
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return domain.StoredFile{}, fmt.Errorf("create file: %w", err)
		}
	}
	if f == nil {
		return domain.StoredFile{}, fmt.Errorf("create file: no free name for %q", safeName)
	}

	written, err := copyLimited(f, r, s.maxBytes)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return domain.StoredFile{}, err
	}

	stored := domain.StoredFile{
		Name:        filepath.Base(path),
		Size:        written,
		ContentType: contentType(path),
		ModTime:     time.Now(),
	}
	if st, statErr := os.Stat(path); statErr == nil {
		stored.ModTime = st.ModTime()
	}
	s.bus.Publish(events.FileEvent{EventType: events.EventFileUploaded, File: stored})
	return stored, nil
}

func copyLimited(dst io.Writer, src io.Reader, maxBytes int64) (int64, error) {
	if maxBytes <= 0 {
		n, err := io.Copy(dst, src)
		if err != nil {
			return n, fmt.Errorf("write file: %w", err)
		}
		return n, nil
	}
	n, err := io.Copy(dst, io.LimitReader(src, maxBytes+1))
	if err != nil {
		return n, fmt.Errorf("write file: %w", err)
	}
	if n > maxBytes {
		return n, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxBytes)
	}
	return n, nil
}

// Open 打开文件用于下载，调用方负责关闭。
func (s *Service) Open(_ context.Context, name string) (f *os.File, file domain.StoredFile, err error) {
	started := time.Now()
	defer func() { s.observer.RecordOperation(opDownload, time.Since(started), file.Size, err) }()

	path, err := s.resolve(opDownload, name)
	if err != nil {
		return nil, domain.StoredFile{}, err
	}
	file, err = s.stat(path)
	if err != nil {
		return nil, domain.StoredFile{}, err
	}
	f, err = os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.StoredFile{}, ErrFileNotFound
		}
		return nil, domain.StoredFile{}, err
	}
	return f, file, nil
}

func (s *Service) Stat(_ context.Context, name string) (domain.StoredFile, error) {
	path, err := s.resolve(opDownload, name)
	if err != nil {
		return domain.StoredFile{}, err
	}
	return s.stat(path)
}

func (s *Service) List(_ context.Context) (files []domain.StoredFile, err error) {
	started := time.Now()
	defer func() { s.observer.RecordOperation(opList, time.Since(started), 0, err) }()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.StoredFile{}, nil
		}
		return nil, err
	}
	files = make([]domain.StoredFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, domain.StoredFile{
			Name:        entry.Name(),
			Size:        info.Size(),
			ContentType: contentType(entry.Name()),
			ModTime:     info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *Service) Delete(_ context.Context, name string) (err error) {
	started := time.Now()
	defer func() { s.observer.RecordOperation(opDelete, time.Since(started), 0, err) }()

	path, err := s.resolve(opDelete, name)
	if err != nil {
		return err
	}
	file, err := s.stat(path)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrFileNotFound
		}
		return err
	}
	s.bus.Publish(events.FileEvent{EventType: events.EventFileDeleted, File: file})
	return nil
}

// resolve 构造安全路径；越界视为安全事件
func (s *Service) resolve(op, name string) (string, error) {
	path, err := s.buildPath(s.root, name)
	if err != nil {
		if errors.Is(err, pathsec.ErrAccessDenied) {
			s.observer.RecordDenied(op)
			s.bus.Publish(events.SecurityEvent{
				EventType: events.EventAccessDenied,
				Operation: op,
				Input:     name,
				Reason:    err.Error(),
			})
		}
		return "", err
	}
	return path, nil
}

// stat 只接受普通文件：目录与符号链接一律视为不存在
func (s *Service) stat(path string) (domain.StoredFile, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.StoredFile{}, ErrFileNotFound
		}
		return domain.StoredFile{}, err
	}
	if !info.Mode().IsRegular() {
		return domain.StoredFile{}, ErrFileNotFound
	}
	return domain.StoredFile{
		Name:        info.Name(),
		Size:        info.Size(),
		ContentType: contentType(path),
		ModTime:     info.ModTime(),
	}, nil
}

// uniqueName 在扩展名前追加 8 位随机后缀：report.pdf -> report-1a2b3c4d.pdf
func uniqueName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// ".env" 这类点文件整个当作 stem
		stem, ext = name, ""
	}
	return stem + "-" + uuid.NewString()[:8] + ext
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
