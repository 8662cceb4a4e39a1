package schedules

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardhub/backend/domain"
	"boardhub/backend/repository"
	"boardhub/backend/repository/sqlstore"
)

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()
	store, err := sqlstore.Open(sqlstore.Config{Path: filepath.Join(t.TempDir(), "sched.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	svc := NewService(sqlstore.NewScheduleRepo(store))
	svc.now = func() time.Time { return now }
	return svc
}

func TestNextRun(t *testing.T) {
	t.Parallel()

	after := time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)

	next, err := NextRun("0 9 * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), next)

	next, err = NextRun("@daily", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), next)

	next, err = NextRun("@every 15m", after)
	require.NoError(t, err)
	assert.Equal(t, after.Add(15*time.Minute), next)

	for _, bad := range []string{"", "61 * * * *", "* * *", "TZ=UTC 0 9 * * *", "0 0 30 2 *"} {
		_, err := NextRun(bad, after)
		require.ErrorIs(t, err, repository.ErrInvalidData, "expr %q", bad)
	}
}

func TestService_CreateComputesNextRunInTimezone(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)

	created, err := svc.Create(context.Background(), domain.Schedule{
		Name:     " Morning digest ",
		Channel:  domain.ChannelEmail,
		CronExpr: "0 9 * * *",
		Timezone: "Asia/Shanghai",
		Enabled:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Morning digest", created.Name)
	require.NotNil(t, created.NextRunAt)
	// 上海 6/1 20:00 之后的 09:00 是 6/2 09:00 (+08:00) = 6/2 01:00 UTC
	assert.Equal(t, time.Date(2024, 6, 2, 1, 0, 0, 0, time.UTC), created.NextRunAt.UTC())
}

func TestService_DisabledHasNoNextRun(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Schedule{Name: "sms", Channel: domain.ChannelSMS, CronExpr: "@hourly"})
	require.NoError(t, err)
	assert.Nil(t, created.NextRunAt)
	assert.Equal(t, "UTC", created.Timezone)

	enabled, err := svc.SetEnabled(ctx, created.ID, true)
	require.NoError(t, err)
	require.NotNil(t, enabled.NextRunAt)
	assert.Equal(t, time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC), enabled.NextRunAt.UTC())

	disabled, err := svc.SetEnabled(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Nil(t, disabled.NextRunAt)
}

func TestService_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, time.Now())
	ctx := context.Background()

	cases := []domain.Schedule{
		{Channel: domain.ChannelEmail, CronExpr: "@daily"},
		{Name: "x", Channel: "fax", CronExpr: "@daily"},
		{Name: "x", Channel: domain.ChannelSlack, CronExpr: "bogus"},
		{Name: "x", Channel: domain.ChannelSlack, CronExpr: "@daily", Timezone: "Mars/Olympus"},
	}
	for _, c := range cases {
		_, err := svc.Create(ctx, c)
		require.ErrorIs(t, err, repository.ErrInvalidData, "%+v", c)
	}

	_, err := svc.List(ctx, "fax")
	require.ErrorIs(t, err, repository.ErrInvalidData)

	_, err = svc.Update(ctx, "missing", domain.Schedule{Name: "x", Channel: domain.ChannelEmail, CronExpr: "@daily"})
	require.ErrorIs(t, err, repository.ErrScheduleNotFound)
}

func TestService_ListFiltersByChannel(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, time.Now())
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.Schedule{Name: "a", Channel: domain.ChannelEmail, CronExpr: "@daily"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.Schedule{Name: "b", Channel: domain.ChannelWhatsApp, CronExpr: "@daily"})
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	wa, err := svc.List(ctx, domain.ChannelWhatsApp)
	require.NoError(t, err)
	require.Len(t, wa, 1)
	assert.Equal(t, "b", wa[0].Name)

	require.NoError(t, svc.Delete(ctx, wa[0].ID))
	require.ErrorIs(t, svc.Delete(ctx, wa[0].ID), repository.ErrScheduleNotFound)
}
