package models

import "time"

const (
	WebhookEventStatusProcessed = "processed"
	WebhookEventStatusFailed    = "failed"
)

// ShopWebhookEvent is the append-only processing ledger for incoming Shopify
// webhooks. The unique index on WebhookID is what makes redelivery handling
// idempotent; rows are never updated after insert.
type ShopWebhookEvent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	WebhookID    *string   `gorm:"type:varchar(191);uniqueIndex" json:"webhook_id,omitempty"`
	ShopDomain   string    `gorm:"type:varchar(191);not null;index" json:"shop_domain"`
	Topic        string    `gorm:"type:varchar(100);not null;index" json:"topic"`
	Status       string    `gorm:"type:varchar(16);not null" json:"status"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
