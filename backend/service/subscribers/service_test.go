package subscribers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardhub/backend/domain"
	"boardhub/backend/repository"
	"boardhub/backend/repository/sqlstore"
	"boardhub/backend/service/monday"
)

type fakeFetcher struct {
	mu    sync.Mutex
	subs  map[string][]domain.Subscriber
	err   error
	calls int
}

func (f *fakeFetcher) BoardSubscribers(_ context.Context, boardID string) ([]domain.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Subscriber(nil), f.subs[boardID]...), nil
}

func newTestService(t *testing.T, fetcher Fetcher) *Service {
	t.Helper()
	store, err := sqlstore.Open(sqlstore.Config{Path: filepath.Join(t.TempDir(), "subs.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(sqlstore.NewSubscriberRepo(store), fetcher, monday.NewCache[[]domain.Subscriber](8, time.Minute), nil)
}

func TestService_ListByBoardMergesManualAndMonday(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{subs: map[string][]domain.Subscriber{
		"b1": {{MondayID: "1", Name: "Ann", Email: "ann@example.com"}},
	}}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	manual, err := svc.Create(ctx, domain.Subscriber{BoardID: "b1", Name: "Zed", Email: "ZED@example.com "})
	require.NoError(t, err)
	assert.Equal(t, "zed@example.com", manual.Email)
	assert.Equal(t, domain.SourceManual, manual.Source)

	subs, err := svc.ListByBoard(ctx, "b1", false)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Ann", subs[0].Name)
	assert.Equal(t, "Zed", subs[1].Name)

	_, err = svc.ListByBoard(ctx, "b1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
}

func TestService_MutationsInvalidateCache(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeFetcher{subs: map[string][]domain.Subscriber{}})
	ctx := context.Background()

	subs, err := svc.ListByBoard(ctx, "b1", false)
	require.NoError(t, err)
	assert.Empty(t, subs)

	created, err := svc.Create(ctx, domain.Subscriber{BoardID: "b1", Name: "New"})
	require.NoError(t, err)
	subs, err = svc.ListByBoard(ctx, "b1", false)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	_, err = svc.Update(ctx, created.ID, domain.Subscriber{BoardID: "b2", Name: "Moved"})
	require.NoError(t, err)
	subs, err = svc.ListByBoard(ctx, "b1", false)
	require.NoError(t, err)
	assert.Empty(t, subs)

	require.NoError(t, svc.Delete(ctx, created.ID))
	subs, err = svc.ListByBoard(ctx, "b2", false)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestService_MondaySubscribersAreReadOnly(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{subs: map[string][]domain.Subscriber{
		"b1": {{MondayID: "9", Name: "Synced"}},
	}}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	subs, err := svc.ListByBoard(ctx, "b1", true)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	id := subs[0].ID
	assert.Equal(t, domain.StableSubscriberID("b1", "9"), id)

	_, err = svc.Update(ctx, id, domain.Subscriber{BoardID: "b1", Name: "Changed"})
	require.ErrorIs(t, err, repository.ErrInvalidData)
	require.ErrorIs(t, svc.Delete(ctx, id), repository.ErrInvalidData)
}

func TestService_FallbackAndErrors(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{err: errors.New("monday down")}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	_, err := svc.ListByBoard(ctx, "b1", false)
	require.Error(t, err)

	_, err = svc.Create(ctx, domain.Subscriber{BoardID: "b1", Name: "Local"})
	require.NoError(t, err)
	subs, err := svc.ListByBoard(ctx, "b1", true)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	_, err = svc.ListByBoard(ctx, " ", false)
	require.ErrorIs(t, err, repository.ErrInvalidID)
}

func TestService_CreateValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.Subscriber{Name: "No board"})
	require.ErrorIs(t, err, repository.ErrInvalidData)
	_, err = svc.Create(ctx, domain.Subscriber{BoardID: "b1"})
	require.ErrorIs(t, err, repository.ErrInvalidData)
	_, err = svc.Create(ctx, domain.Subscriber{BoardID: "b1", Email: "nope"})
	require.ErrorIs(t, err, repository.ErrInvalidData)

	created, err := svc.Create(ctx, domain.Subscriber{BoardID: "b1", Email: "ok@example.com", Source: domain.SourceMonday, MondayID: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceManual, created.Source)
	assert.Empty(t, created.MondayID)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrSubscriberNotFound)
}
