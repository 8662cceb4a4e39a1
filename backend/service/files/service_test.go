package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardhub/backend/pathsec"
	"boardhub/backend/repository/events"
)

func newTestService(t *testing.T, maxBytes int64, bus *events.Bus) *Service {
	t.Helper()
	svc, err := NewService(Config{Root: filepath.Join(t.TempDir(), "uploads"), MaxBytes: maxBytes}, nil, bus, nil)
	require.NoError(t, err)
	require.NoError(t, svc.EnsureRoot())
	return svc
}

func TestService_EnsureRootIdempotent(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, 0, nil)
	require.NoError(t, svc.EnsureRoot())

	info, err := os.Stat(svc.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewService_RequiresRoot(t *testing.T) {
	t.Parallel()
	_, err := NewService(Config{Root: "  "}, nil, nil, nil)
	assert.ErrorIs(t, err, pathsec.ErrInvalidInput)
}

func TestService_SaveSanitizesName(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, 0, nil)

	stored, err := svc.Save(context.Background(), `..\..\etc\my report (1).pdf`, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "my_report__1_.pdf", stored.Name)
	assert.EqualValues(t, 5, stored.Size)
	assert.Equal(t, "application/pdf", stored.ContentType)

	data, err := os.ReadFile(filepath.Join(svc.Root(), stored.Name))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestService_SaveRejectsInvalidNames(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, 0, nil)

	for _, name := range []string{"", "..", "../", "///", "...."} {
		_, err := svc.Save(context.Background(), name, strings.NewReader("x"))
		assert.ErrorIs(t, err, pathsec.ErrInvalidInput, "name %q", name)
	}
}

func TestService_SaveKeepsExistingFile(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, 0, nil)
	ctx := context.Background()

	first, err := svc.Save(ctx, "notes.txt", strings.NewReader("first"))
	require.NoError(t, err)
	second, err := svc.Save(ctx, "notes.txt", strings.NewReader("second"))
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", first.Name)
	assert.NotEqual(t, first.Name, second.Name)
	assert.Regexp(t, `^notes-[0-9a-f]{8}\.txt$`, second.Name)

	data, err := os.ReadFile(filepath.Join(svc.Root(), "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestService_SaveTooLarge(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, 4, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, "big.bin", bytes.NewReader(make([]byte, 5)))
	require.ErrorIs(t, err, ErrTooLarge)
	_, statErr := os.Stat(filepath.Join(svc.Root(), "big.bin"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "oversized upload must not stay on disk")

	stored, err := svc.Save(ctx, "fits.bin", bytes.NewReader(make([]byte, 4)))
	require.NoError(t, err)
	assert.EqualValues(t, 4, stored.Size)
}

func TestService_OpenAndStat(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, 0, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, "data.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)

	f, info, err := svc.Open(ctx, "data.csv")
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(body))
	assert.Equal(t, "data.csv", info.Name)
	assert.EqualValues(t, 8, info.Size)

	_, err = svc.Stat(ctx, "missing.csv")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestService_OpenTraversalStaysInRoot(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, 0, nil)
	outside := filepath.Join(filepath.Dir(svc.Root()), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))

	// "../secret.txt" 被清洗为 "secret.txt"，只在上传目录内查找
	_, _, err := svc.Open(context.Background(), "../secret.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestService_DirectoriesAndSymlinksAreNotFiles(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, 0, nil)
	ctx := context.Background()

	require.NoError(t, os.Mkdir(filepath.Join(svc.Root(), "subdir"), 0o755))
	outside := filepath.Join(filepath.Dir(svc.Root()), "target.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))
	if err := os.Symlink(outside, filepath.Join(svc.Root(), "link.txt")); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	_, err := svc.Stat(ctx, "subdir")
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, _, err = svc.Open(ctx, "link.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_ListSorted(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, 0, nil)
	ctx := context.Background()

	for _, name := range []string{"b.txt", "a.txt", "c.png"} {
		_, err := svc.Save(ctx, name, strings.NewReader(name))
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a.txt", list[0].Name)
	assert.Equal(t, "b.txt", list[1].Name)
	assert.Equal(t, "c.png", list[2].Name)
	assert.Equal(t, "image/png", list[2].ContentType)
}

func TestService_ListMissingRoot(t *testing.T) {
	t.Parallel()
	svc, err := NewService(Config{Root: filepath.Join(t.TempDir(), "never-created")}, nil, nil, nil)
	require.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_Delete(t *testing.T) {
	t.Parallel()
	bus := events.NewBus()
	deleted := make(chan events.FileEvent, 1)
	bus.Subscribe(events.EventFileDeleted, func(e events.Event) {
		deleted <- e.(events.FileEvent)
	})
	svc := newTestService(t, 0, bus)
	ctx := context.Background()

	_, err := svc.Save(ctx, "old.log", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "old.log"))

	select {
	case ev := <-deleted:
		assert.Equal(t, "old.log", ev.File.Name)
	case <-time.After(time.Second):
		t.Fatal("expected file.deleted event")
	}

	assert.ErrorIs(t, svc.Delete(ctx, "old.log"), ErrFileNotFound)
}

type recordingObserver struct {
	mu     sync.Mutex
	ops    []string
	denied []string
}

func (r *recordingObserver) RecordOperation(op string, _ time.Duration, _ int64, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingObserver) RecordDenied(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.denied = append(r.denied, op)
}

func TestService_RecordsOperations(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	svc, err := NewService(Config{Root: t.TempDir()}, obs, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Save(ctx, "a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "a.txt"))

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []string{opUpload, opList, opDelete}, obs.ops)
	assert.Empty(t, obs.denied)
}

func TestService_AccessDeniedIsRecorded(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	bus := events.NewBus()
	denied := make(chan events.SecurityEvent, 4)
	bus.Subscribe(events.EventAccessDenied, func(e events.Event) {
		denied <- e.(events.SecurityEvent)
	})
	svc, err := NewService(Config{Root: t.TempDir()}, obs, bus, nil)
	require.NoError(t, err)
	svc.buildPath = func(_, userPath string) (string, error) {
		return "", fmt.Errorf("%w: %s escapes upload directory", pathsec.ErrAccessDenied, userPath)
	}
	ctx := context.Background()

	_, _, err = svc.Open(ctx, "report.pdf")
	require.ErrorIs(t, err, pathsec.ErrAccessDenied)
	require.ErrorIs(t, svc.Delete(ctx, "report.pdf"), pathsec.ErrAccessDenied)

	for _, op := range []string{opDownload, opDelete} {
		select {
		case ev := <-denied:
			assert.Equal(t, events.EventAccessDenied, ev.EventType)
			assert.Equal(t, op, ev.Operation)
			assert.Equal(t, "report.pdf", ev.Input)
			assert.Contains(t, ev.Reason, pathsec.ErrAccessDenied.Error())
		case <-time.After(time.Second):
			t.Fatalf("expected security event for %s", op)
		}
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []string{opDownload, opDelete}, obs.denied)
}

func TestService_SaveGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, 0, nil)
	taken := filepath.Join(svc.Root(), "taken.txt")
	require.NoError(t, os.WriteFile(taken, []byte("keep"), 0o600))

	var tried []string
	svc.buildPath = func(_, userPath string) (string, error) {
		tried = append(tried, userPath)
		return taken, nil
	}

	_, err := svc.Save(context.Background(), "notes.txt", strings.NewReader("new"))
	require.Error(t, err)
	require.Len(t, tried, maxNameAttempts)
	assert.Equal(t, "notes.txt", tried[0])
	for _, name := range tried[1:] {
		assert.Regexp(t, `^notes-[0-9a-f]{8}\.txt$`, name)
	}

	data, err := os.ReadFile(taken)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestPrometheusObserver(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver("test_files", reg)
	require.NoError(t, err)

	obs.RecordOperation(opUpload, 10*time.Millisecond, 128, nil)
	obs.RecordOperation(opUpload, time.Millisecond, 0, errors.New("boom"))
	obs.RecordDenied(opDownload)

	assert.Equal(t, float64(128), testutil.ToFloat64(obs.uploadedSize))
	assert.Equal(t, float64(1), testutil.ToFloat64(obs.errors.WithLabelValues(opUpload)))
	assert.Equal(t, float64(1), testutil.ToFloat64(obs.denied.WithLabelValues(opDownload)))

	again, err := NewPrometheusObserver("test_files", reg)
	require.NoError(t, err)
	again.RecordDenied(opDownload)
	assert.Equal(t, float64(2), testutil.ToFloat64(obs.denied.WithLabelValues(opDownload)))
}
