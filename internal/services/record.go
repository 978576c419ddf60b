package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/letter5700/backend/internal/platform/logger"
	"github.com/letter5700/backend/internal/repos"
	"github.com/letter5700/backend/internal/types"
)

// RecordService owns the journal entry lifecycle. Writing an entry is
// synchronous and fast; the advice run it triggers happens off-request
// through the pipeline.
type RecordService interface {
	Create(ctx context.Context, username, content, fcmToken string) (*types.DailyRecord, error)
	Get(ctx context.Context, recordID uuid.UUID) (*types.DailyRecord, error)
	ListByUsername(ctx context.Context, username string) ([]*types.DailyRecord, error)
	DeleteAllByUsername(ctx context.Context, username string) error
}

type recordService struct {
	log      *logger.Logger
	members  repos.MemberRepo
	records  repos.DailyRecordRepo
	pipeline AdvicePipeline
}

func NewRecordService(
	baseLog *logger.Logger,
	members repos.MemberRepo,
	records repos.DailyRecordRepo,
	pipeline AdvicePipeline,
) RecordService {
	return &recordService{
		log:      baseLog.With("service", "RecordService"),
		members:  members,
		records:  records,
		pipeline: pipeline,
	}
}

// Create persists the entry with an empty emotion and enqueues the
// advice run. The response carries the stored entry as-is; emotion and
// advice arrive later.
func (rs *recordService) Create(ctx context.Context, username, content, fcmToken string) (*types.DailyRecord, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("record content must not be empty")
	}

	member, err := rs.members.GetByUsername(ctx, nil, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load member %q: %w", username, err)
	}
	if member == nil {
		return nil, fmt.Errorf("member %q not found", username)
	}

	record, err := rs.records.Create(ctx, nil, &types.DailyRecord{
		MemberID:   member.ID,
		Content:    content,
		RecordDate: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	rs.pipeline.Enqueue(record.ID, record.Content, fcmToken)
	rs.log.Info("Record created; advice run enqueued", "record_id", record.ID.String())
	return record, nil
}

func (rs *recordService) Get(ctx context.Context, recordID uuid.UUID) (*types.DailyRecord, error) {
	record, err := rs.records.GetByIDWithAdvice(ctx, nil, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", recordID, err)
	}
	return record, nil
}

func (rs *recordService) ListByUsername(ctx context.Context, username string) ([]*types.DailyRecord, error) {
	member, err := rs.members.GetByUsername(ctx, nil, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load member %q: %w", username, err)
	}
	if member == nil {
		return nil, fmt.Errorf("member %q not found", username)
	}
	return rs.records.GetByMemberID(ctx, nil, member.ID)
}

func (rs *recordService) DeleteAllByUsername(ctx context.Context, username string) error {
	member, err := rs.members.GetByUsername(ctx, nil, username)
	if err != nil {
		return fmt.Errorf("failed to load member %q: %w", username, err)
	}
	if member == nil {
		return fmt.Errorf("member %q not found", username)
	}
	if err := rs.records.DeleteByMemberID(ctx, nil, member.ID); err != nil {
		return fmt.Errorf("failed to delete records for %q: %w", username, err)
	}
	rs.log.Info("All records deleted", "username", username)
	return nil
}
