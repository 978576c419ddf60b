package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/letter5700/backend/internal/platform/logger"
	"github.com/letter5700/backend/internal/types"
)

type DailyRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *types.DailyRecord) (*types.DailyRecord, error)
	// GetByID returns (nil, nil) when the record does not exist.
	GetByID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.DailyRecord, error)
	GetByIDWithAdvice(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.DailyRecord, error)
	GetByMemberID(ctx context.Context, tx *gorm.DB, memberID uuid.UUID) ([]*types.DailyRecord, error)
	Save(ctx context.Context, tx *gorm.DB, record *types.DailyRecord) error
	DeleteByMemberID(ctx context.Context, tx *gorm.DB, memberID uuid.UUID) error
}

type dailyRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyRecordRepo(db *gorm.DB, baseLog *logger.Logger) DailyRecordRepo {
	return &dailyRecordRepo{db: db, log: baseLog.With("repo", "DailyRecordRepo")}
}

func (rr *dailyRecordRepo) Create(ctx context.Context, tx *gorm.DB, record *types.DailyRecord) (*types.DailyRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (rr *dailyRecordRepo) GetByID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.DailyRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var record types.DailyRecord
	if err := transaction.WithContext(ctx).
		Where("id = ?", recordID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (rr *dailyRecordRepo) GetByIDWithAdvice(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.DailyRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var record types.DailyRecord
	if err := transaction.WithContext(ctx).
		Preload("Advice").
		Where("id = ?", recordID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (rr *dailyRecordRepo) GetByMemberID(ctx context.Context, tx *gorm.DB, memberID uuid.UUID) ([]*types.DailyRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.DailyRecord
	if err := transaction.WithContext(ctx).
		Preload("Advice").
		Where("member_id = ?", memberID).
		Order("record_date DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *dailyRecordRepo) Save(ctx context.Context, tx *gorm.DB, record *types.DailyRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).Save(record).Error
}

func (rr *dailyRecordRepo) DeleteByMemberID(ctx context.Context, tx *gorm.DB, memberID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).
		Where("member_id = ?", memberID).
		Delete(&types.DailyRecord{}).Error
}
