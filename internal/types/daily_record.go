package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DailyRecord is one journal entry. Emotion starts empty and is filled in
// by the advice pipeline after classification; last write wins.
type DailyRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID   uuid.UUID `gorm:"type:uuid;index;not null;column:member_id" json:"member_id"`
	Content    string    `gorm:"type:text;not null;column:content" json:"content"`
	Emotion    string    `gorm:"column:emotion" json:"emotion"`
	RecordDate time.Time `gorm:"not null;column:record_date" json:"record_date"`

	Advice *Advice `gorm:"foreignKey:DailyRecordID" json:"advice,omitempty"`
}

func (DailyRecord) TableName() string {
	return "daily_record"
}

func (r *DailyRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
