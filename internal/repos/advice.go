package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/letter5700/backend/internal/platform/logger"
	"github.com/letter5700/backend/internal/types"
)

type AdviceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, advice *types.Advice) (*types.Advice, error)
	GetByRecordID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) ([]*types.Advice, error)
	CountByRecordID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (int64, error)
}

type adviceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdviceRepo(db *gorm.DB, baseLog *logger.Logger) AdviceRepo {
	return &adviceRepo{db: db, log: baseLog.With("repo", "AdviceRepo")}
}

func (ar *adviceRepo) Create(ctx context.Context, tx *gorm.DB, advice *types.Advice) (*types.Advice, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if err := transaction.WithContext(ctx).Create(advice).Error; err != nil {
		return nil, err
	}
	return advice, nil
}

func (ar *adviceRepo) GetByRecordID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) ([]*types.Advice, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Advice
	if err := transaction.WithContext(ctx).
		Where("daily_record_id = ?", recordID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *adviceRepo) CountByRecordID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Advice{}).
		Where("daily_record_id = ?", recordID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
