package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/letter5700/backend/internal/platform/logger"
	"github.com/letter5700/backend/internal/types"
)

type MemberRepo interface {
	Create(ctx context.Context, tx *gorm.DB, member *types.Member) (*types.Member, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.Member, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type memberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return &memberRepo{db: db, log: baseLog.With("repo", "MemberRepo")}
}

func (mr *memberRepo) Create(ctx context.Context, tx *gorm.DB, member *types.Member) (*types.Member, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	if err := transaction.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

func (mr *memberRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.Member, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var member types.Member
	if err := transaction.WithContext(ctx).
		Where("username = ?", username).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (mr *memberRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).Model(&types.Member{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
