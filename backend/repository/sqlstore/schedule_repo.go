package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"boardhub/backend/domain"
	"boardhub/backend/repository"
	"boardhub/backend/repository/events"
)

// ScheduleRepo 发送计划仓储实现
type ScheduleRepo struct {
	store *Store
}

func NewScheduleRepo(store *Store) *ScheduleRepo {
	return &ScheduleRepo{store: store}
}

func (r *ScheduleRepo) Get(ctx context.Context, id string) (domain.Schedule, error) {
	var sched domain.Schedule
	if err := r.store.DB(ctx).First(&sched, "id = ?", id).Error; err != nil {
		return domain.Schedule{}, translate(err, repository.ErrScheduleNotFound)
	}
	return sched, nil
}

func (r *ScheduleRepo) List(ctx context.Context) ([]domain.Schedule, error) {
	var items []domain.Schedule
	if err := r.store.DB(ctx).Order("name").Order("created_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ScheduleRepo) ListByChannel(ctx context.Context, channel domain.Channel) ([]domain.Schedule, error) {
	var items []domain.Schedule
	err := r.store.DB(ctx).
		Where("channel = ?", channel).
		Order("name").Order("created_at").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ScheduleRepo) Create(ctx context.Context, sched domain.Schedule) (domain.Schedule, error) {
	if sched.ID == "" {
		sched.ID = uuid.NewString()
	}
	if err := r.store.DB(ctx).Create(&sched).Error; err != nil {
		return domain.Schedule{}, translate(err, repository.ErrScheduleNotFound)
	}

	r.store.PublishEvent(events.ScheduleEvent{
		EventType:  events.EventScheduleCreated,
		ScheduleID: sched.ID,
		Schedule:   sched,
	})
	return sched, nil
}

func (r *ScheduleRepo) Update(ctx context.Context, id string, sched domain.Schedule) (domain.Schedule, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return domain.Schedule{}, err
	}
	sched.ID = id
	sched.CreatedAt = current.CreatedAt
	if sched.LastRunAt == nil {
		sched.LastRunAt = current.LastRunAt
	}
	sched.UpdatedAt = time.Now()
	if err := r.store.DB(ctx).Save(&sched).Error; err != nil {
		return domain.Schedule{}, translate(err, repository.ErrScheduleNotFound)
	}

	r.store.PublishEvent(events.ScheduleEvent{
		EventType:  events.EventScheduleUpdated,
		ScheduleID: id,
		Schedule:   sched,
	})
	return sched, nil
}

func (r *ScheduleRepo) Delete(ctx context.Context, id string) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.DB(ctx).Delete(&domain.Schedule{}, "id = ?", id).Error; err != nil {
		return err
	}

	r.store.PublishEvent(events.ScheduleEvent{
		EventType:  events.EventScheduleDeleted,
		ScheduleID: id,
		Schedule:   current,
	})
	return nil
}
