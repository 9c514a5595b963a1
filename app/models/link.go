package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Link is a tracked short link. Slug is the public identifier used in the
// redirect URL; Clicks is maintained by the metrics counter and flushed in
// batches, so it may lag slightly behind the cache value.
type Link struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UUID      string         `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	Slug      string         `gorm:"type:varchar(32) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"slug"`
	TargetURL string         `gorm:"type:varchar(2048);not null" json:"target_url" validate:"required,url,max=2048"`
	Title     string         `gorm:"type:varchar(255)" json:"title" validate:"max=255"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	Clicks    uint64         `gorm:"default:0" json:"clicks"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (l *Link) Validate() error {
	v := validator.New()

	return v.Struct(l)
}

func (l *Link) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == "" {
		l.UUID = uuid.New().String()
	}
	return nil
}
