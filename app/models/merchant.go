package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	TokenStatusActive  = "active"
	TokenStatusInvalid = "invalid"
	TokenStatusRevoked = "revoked"
)

const (
	SubscriptionStatusTrial     = "trial"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Merchant is a user's connected Shopify store: the OAuth credentials plus the
// recurring charge state. A shop domain may appear on several rows over time,
// but at most one of them carries an active token.
type Merchant struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	User               User           `gorm:"foreignKey:UserID" json:"-"`
	ShopDomain         *string        `gorm:"type:varchar(191);index" json:"-" validate:"omitempty,hostname"`
	AccessToken        *string        `gorm:"type:varchar(255)" json:"-"`
	TokenStatus        string         `gorm:"type:varchar(16);not null;default:'active'" json:"token_status" validate:"oneof=active invalid revoked"`
	SubscriptionStatus string         `gorm:"type:varchar(16);not null;default:'trial'" json:"subscription_status" validate:"oneof=trial active cancelled expired"`
	ChargeID           *int64         `gorm:"type:bigint;default:null" json:"charge_id,omitempty"`
	PlanName           string         `gorm:"type:varchar(50);default:null" json:"plan_name"`
	TrialStartsAt      *time.Time     `gorm:"type:timestamp;default:null" json:"trial_starts_at,omitempty"`
	TrialEndsAt        *time.Time     `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	LastValidatedAt    *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *Merchant) Validate() error {
	v := validator.New()

	return v.Struct(m)
}

// HasCredentials reports whether the merchant holds a usable token.
func (m *Merchant) HasCredentials() bool {
	return m.ShopDomain != nil && *m.ShopDomain != "" &&
		m.AccessToken != nil && *m.AccessToken != "" &&
		m.TokenStatus == TokenStatusActive
}

// IsBillable reports whether the merchant counts as paying or in trial.
func (m *Merchant) IsBillable() bool {
	switch m.SubscriptionStatus {
	case SubscriptionStatusActive:
		return true
	case SubscriptionStatusTrial:
		return m.TrialEndsAt == nil || m.TrialEndsAt.After(time.Now())
	default:
		return false
	}
}
