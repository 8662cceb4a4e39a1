package sqlstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"boardhub/backend/domain"
	"boardhub/backend/repository"
	"boardhub/backend/repository/events"
)

// BoardRepo 看板缓存仓储实现
type BoardRepo struct {
	store *Store
}

func NewBoardRepo(store *Store) *BoardRepo {
	return &BoardRepo{store: store}
}

func (r *BoardRepo) Get(ctx context.Context, id string) (domain.Board, error) {
	var board domain.Board
	if err := r.store.DB(ctx).First(&board, "id = ?", id).Error; err != nil {
		return domain.Board{}, translate(err, repository.ErrBoardNotFound)
	}
	return board, nil
}

func (r *BoardRepo) List(ctx context.Context) ([]domain.Board, error) {
	var boards []domain.Board
	if err := r.store.DB(ctx).Order("name").Order("id").Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

// ReplaceAll 以入参作为最新快照：upsert 全部看板，删除快照外的历史看板。
func (r *BoardRepo) ReplaceAll(ctx context.Context, boards []domain.Board) ([]domain.Board, error) {
	ids := make([]string, 0, len(boards))
	for _, b := range boards {
		if b.ID == "" {
			return nil, repository.ErrInvalidID
		}
		ids = append(ids, b.ID)
	}

	err := r.store.DB(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Model(&domain.Board{})
		if len(ids) > 0 {
			del = del.Where("id NOT IN ?", ids)
		} else {
			del = del.Where("1 = 1")
		}
		if err := del.Delete(&domain.Board{}).Error; err != nil {
			return err
		}
		if len(boards) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&boards).Error
	})
	if err != nil {
		return nil, err
	}

	r.store.PublishEvent(events.BoardsEvent{
		EventType: events.EventBoardsSynced,
		Count:     len(boards),
	})
	return r.List(ctx)
}
