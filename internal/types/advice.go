package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Advice is the generated letter for one DailyRecord. The back-reference
// is indexed but deliberately not unique: the pipeline has no duplicate-run
// guard, so a re-run for the same record produces a second row.
type Advice struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DailyRecordID uuid.UUID `gorm:"type:uuid;index;not null;column:daily_record_id" json:"daily_record_id"`
	Content       string    `gorm:"type:text;not null;column:content" json:"content"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (Advice) TableName() string {
	return "advice"
}

func (a *Advice) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
