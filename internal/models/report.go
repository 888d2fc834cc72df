package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// BulkReport is the audit row of one bulk status transition
type BulkReport struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	SessionID  string         `gorm:"index;not null" json:"session_id"`
	Entity     string         `gorm:"index;not null" json:"entity"`
	Action     string         `gorm:"not null" json:"action"`
	Requested  int            `gorm:"not null;default:0" json:"requested"`
	Succeeded  int            `gorm:"not null;default:0" json:"succeeded"`
	Failed     int            `gorm:"not null;default:0" json:"failed"`
	Skipped    int            `gorm:"not null;default:0" json:"skipped"`
	Details    []byte         `gorm:"type:jsonb" json:"details"`
	StartedAt  time.Time      `gorm:"not null" json:"started_at"`
	FinishedAt time.Time      `gorm:"not null" json:"finished_at"`
}

// BeforeCreate assigns the identifier when the caller did not
func (r *BulkReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SetupModels runs the migrations of the tables owned by this service
func SetupModels(db *gorm.DB) error {
	if err := db.AutoMigrate(&BulkReport{}); err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}
	return nil
}
