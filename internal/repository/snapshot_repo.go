package repository

import (
	"context"
	"errors"
	"time"

	"go-farm-ledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository persists ledger snapshots. It satisfies ledger.Store.
type SnapshotRepository interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte) error
	Revision(ctx context.Context, key string) (int64, error)
}

type snapshotRepo struct {
	db *gorm.DB
}

func NewSnapshotRepo(db *gorm.DB) SnapshotRepository {
	return &snapshotRepo{db}
}

func (r *snapshotRepo) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var snap model.LedgerSnapshot
	err := r.db.WithContext(ctx).First(&snap, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(snap.Data), true, nil
}

// Save upserts the snapshot and bumps its revision.
func (r *snapshotRepo) Save(ctx context.Context, key string, data []byte) error {
	now := time.Now().UTC()
	snap := model.LedgerSnapshot{
		Key:       key,
		Data:      string(data),
		Revision:  1,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"data":       snap.Data,
			"revision":   gorm.Expr("ledger_snapshots.revision + 1"),
			"updated_at": now,
		}),
	}).Create(&snap).Error
}

// Revision returns 0 when nothing is stored under key.
func (r *snapshotRepo) Revision(ctx context.Context, key string) (int64, error) {
	var rev int64
	err := r.db.WithContext(ctx).Model(&model.LedgerSnapshot{}).
		Select("COALESCE(MAX(revision), 0)").
		Where("key = ?", key).
		Scan(&rev).Error
	return rev, err
}
