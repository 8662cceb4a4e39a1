package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardhub/backend/domain"
	"boardhub/backend/repository"
	"boardhub/backend/repository/events"
)

func openTestStore(t *testing.T) (*Store, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	store, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")}, bus)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, bus
}

func TestUserRepo_CreateGetAndDuplicate(t *testing.T) {
	t.Parallel()

	store, _ := openTestStore(t)
	repo := NewUserRepo(store)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.User{Email: "  Admin@Example.com ", PasswordHash: "x", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "admin@example.com", created.Email)

	got, err := repo.GetByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = repo.Create(ctx, domain.User{Email: "admin@example.com", PasswordHash: "y"})
	require.ErrorIs(t, err, repository.ErrAlreadyExists)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	now := time.Now()
	require.NoError(t, repo.TouchLogin(ctx, created.ID, now))
	got, err = repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)

	require.ErrorIs(t, repo.TouchLogin(ctx, "missing", now), repository.ErrUserNotFound)
	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestBoardRepo_ReplaceAllRemovesStaleBoards(t *testing.T) {
	t.Parallel()

	store, _ := openTestStore(t)
	repo := NewBoardRepo(store)
	ctx := context.Background()

	_, err := repo.ReplaceAll(ctx, []domain.Board{{ID: "1", Name: "Alpha"}, {ID: "2", Name: "Beta"}})
	require.NoError(t, err)

	boards, err := repo.ReplaceAll(ctx, []domain.Board{{ID: "2", Name: "Beta renamed"}, {ID: "3", Name: "Gamma"}})
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, "Beta renamed", boards[0].Name)
	assert.Equal(t, "Gamma", boards[1].Name)

	_, err = repo.Get(ctx, "1")
	require.ErrorIs(t, err, repository.ErrBoardNotFound)

	boards, err = repo.ReplaceAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, boards)

	_, err = repo.ReplaceAll(ctx, []domain.Board{{Name: "no id"}})
	require.ErrorIs(t, err, repository.ErrInvalidID)
}

func TestSubscriberRepo_ReplaceMondayKeepsManualRows(t *testing.T) {
	t.Parallel()

	store, _ := openTestStore(t)
	repo := NewSubscriberRepo(store)
	ctx := context.Background()

	manual, err := repo.Create(ctx, domain.Subscriber{BoardID: "b1", Name: "Manual", Email: "m@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceManual, manual.Source)

	first, err := repo.ReplaceMondayForBoard(ctx, "b1", []domain.Subscriber{
		{MondayID: "10", Name: "Ann"},
		{MondayID: "11", Name: "Bob"},
	})
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := repo.ReplaceMondayForBoard(ctx, "b1", []domain.Subscriber{{MondayID: "11", Name: "Bobby"}})
	require.NoError(t, err)
	require.Len(t, second, 2)

	names := []string{second[0].Name, second[1].Name}
	assert.ElementsMatch(t, []string{"Manual", "Bobby"}, names)

	bob, err := repo.Get(ctx, domain.StableSubscriberID("b1", "11"))
	require.NoError(t, err)
	assert.Equal(t, domain.SourceMonday, bob.Source)
	assert.True(t, bob.ReadOnly())
	require.NotNil(t, bob.SyncedAt)

	other, err := repo.ListByBoard(ctx, "b2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSubscriberRepo_UpdateKeepsSourceAndPublishes(t *testing.T) {
	t.Parallel()

	store, bus := openTestStore(t)
	repo := NewSubscriberRepo(store)
	ctx := context.Background()

	updates := make(chan events.SubscriberEvent, 4)
	bus.Subscribe(events.EventSubscriberUpdated, func(e events.Event) {
		updates <- e.(events.SubscriberEvent)
	})

	created, err := repo.Create(ctx, domain.Subscriber{BoardID: "b1", Name: "A"})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, domain.Subscriber{BoardID: "b2", Name: "B", Source: domain.SourceMonday})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceManual, updated.Source)
	assert.Equal(t, "b2", updated.BoardID)

	boards := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case e := <-updates:
			boards[e.BoardID] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for update events")
		}
	}
	assert.Equal(t, map[string]bool{"b1": true, "b2": true}, boards)

	require.NoError(t, repo.Delete(ctx, created.ID))
	require.ErrorIs(t, repo.Delete(ctx, created.ID), repository.ErrSubscriberNotFound)
}

func TestScheduleRepo_CRUD(t *testing.T) {
	t.Parallel()

	store, _ := openTestStore(t)
	repo := NewScheduleRepo(store)
	ctx := context.Background()

	next := time.Now().Add(time.Hour).UTC()
	created, err := repo.Create(ctx, domain.Schedule{Name: "daily", Channel: domain.ChannelEmail, CronExpr: "@daily", Enabled: true, NextRunAt: &next})
	require.NoError(t, err)
	_, err = repo.Create(ctx, domain.Schedule{Name: "sms", Channel: domain.ChannelSMS, CronExpr: "@hourly"})
	require.NoError(t, err)

	emails, err := repo.ListByChannel(ctx, domain.ChannelEmail)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, created.ID, emails[0].ID)

	created.Enabled = false
	created.NextRunAt = nil
	updated, err := repo.Update(ctx, created.ID, created)
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.NextRunAt)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	require.ErrorIs(t, err, repository.ErrScheduleNotFound)
}
