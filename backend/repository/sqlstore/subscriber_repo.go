package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"boardhub/backend/domain"
	"boardhub/backend/repository"
	"boardhub/backend/repository/events"
)

// SubscriberRepo 订阅者仓储实现
type SubscriberRepo struct {
	store *Store
}

func NewSubscriberRepo(store *Store) *SubscriberRepo {
	return &SubscriberRepo{store: store}
}

func (r *SubscriberRepo) Get(ctx context.Context, id string) (domain.Subscriber, error) {
	var sub domain.Subscriber
	if err := r.store.DB(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return domain.Subscriber{}, translate(err, repository.ErrSubscriberNotFound)
	}
	return sub, nil
}

func (r *SubscriberRepo) List(ctx context.Context) ([]domain.Subscriber, error) {
	var subs []domain.Subscriber
	if err := r.store.DB(ctx).Order("name").Order("created_at").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriberRepo) ListByBoard(ctx context.Context, boardID string) ([]domain.Subscriber, error) {
	var subs []domain.Subscriber
	err := r.store.DB(ctx).
		Where("board_id = ?", boardID).
		Order("name").Order("created_at").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriberRepo) Create(ctx context.Context, sub domain.Subscriber) (domain.Subscriber, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Source == "" {
		sub.Source = domain.SourceManual
	}
	if err := r.store.DB(ctx).Create(&sub).Error; err != nil {
		return domain.Subscriber{}, translate(err, repository.ErrSubscriberNotFound)
	}

	r.store.PublishEvent(events.SubscriberEvent{
		EventType:    events.EventSubscriberCreated,
		BoardID:      sub.BoardID,
		SubscriberID: sub.ID,
		Subscriber:   sub,
	})
	return sub, nil
}

func (r *SubscriberRepo) Update(ctx context.Context, id string, sub domain.Subscriber) (domain.Subscriber, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return domain.Subscriber{}, err
	}
	sub.ID = id
	sub.CreatedAt = current.CreatedAt
	sub.Source = current.Source
	sub.MondayID = current.MondayID
	sub.SyncedAt = current.SyncedAt
	sub.UpdatedAt = time.Now()
	if err := r.store.DB(ctx).Save(&sub).Error; err != nil {
		return domain.Subscriber{}, translate(err, repository.ErrSubscriberNotFound)
	}

	r.store.PublishEvent(events.SubscriberEvent{
		EventType:    events.EventSubscriberUpdated,
		BoardID:      sub.BoardID,
		SubscriberID: id,
		Subscriber:   sub,
	})
	if current.BoardID != sub.BoardID {
		// 换了看板，旧看板的缓存同样失效
		r.store.PublishEvent(events.SubscriberEvent{
			EventType:    events.EventSubscriberUpdated,
			BoardID:      current.BoardID,
			SubscriberID: id,
			Subscriber:   sub,
		})
	}
	return sub, nil
}

func (r *SubscriberRepo) Delete(ctx context.Context, id string) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.DB(ctx).Delete(&domain.Subscriber{}, "id = ?", id).Error; err != nil {
		return err
	}

	r.store.PublishEvent(events.SubscriberEvent{
		EventType:    events.EventSubscriberDeleted,
		BoardID:      current.BoardID,
		SubscriberID: id,
		Subscriber:   current,
	})
	return nil
}

// ReplaceMondayForBoard 对指定看板的 monday 订阅者做“替换”：
// upsert 入参集合，删除不在集合内的历史 monday 订阅者；手动添加的订阅者不受影响。
func (r *SubscriberRepo) ReplaceMondayForBoard(ctx context.Context, boardID string, subs []domain.Subscriber) ([]domain.Subscriber, error) {
	if strings.TrimSpace(boardID) == "" {
		return nil, repository.ErrInvalidID
	}
	now := time.Now()
	next := make([]domain.Subscriber, 0, len(subs))
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		sub.BoardID = boardID
		sub.Source = domain.SourceMonday
		if sub.ID == "" {
			sub.ID = domain.StableSubscriberID(boardID, sub.MondayID)
		}
		if sub.ID == "" {
			return nil, repository.ErrInvalidID
		}
		if sub.CreatedAt.IsZero() {
			sub.CreatedAt = now
		}
		sub.UpdatedAt = now
		sub.SyncedAt = &now
		next = append(next, sub)
		ids = append(ids, sub.ID)
	}

	err := r.store.DB(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("board_id = ? AND source = ?", boardID, domain.SourceMonday)
		if len(ids) > 0 {
			del = del.Where("id NOT IN ?", ids)
		}
		if err := del.Delete(&domain.Subscriber{}).Error; err != nil {
			return err
		}
		if len(next) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"board_id", "monday_id", "name", "email", "phone", "source", "synced_at", "updated_at"}),
		}).Create(&next).Error
	})
	if err != nil {
		return nil, err
	}

	r.store.PublishEvent(events.SubscriberEvent{
		EventType: events.EventSubscribersSynced,
		BoardID:   boardID,
	})
	return r.ListByBoard(ctx, boardID)
}
