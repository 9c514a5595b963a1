package billing

import (
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service and the
// webhook ingestion path.
type Repository interface {
	GetMerchantByUserID(userID uint) (*models.Merchant, error)
	GetMerchantByShopDomain(shopDomain string) (*models.Merchant, error)
	SaveShopCredentials(userID uint, shopDomain, accessToken string, trialDays int) (*models.Merchant, error)
	ActivateSubscription(merchantID uint, chargeID int64, planName string) error
	CancelSubscription(merchantID uint) error
	MarkTokenInvalid(merchantID uint) error
	UpdateTokenValidated(merchantID uint, at time.Time) error
	RevokeToken(merchantID uint) error
	PurgeShopData(shopDomain string) error
	HasWebhookEvent(webhookID string) (bool, error)
	CreateWebhookEventIfNotExists(event *models.ShopWebhookEvent) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetMerchantByUserID(userID uint) (*models.Merchant, error) {
	var m models.Merchant
	if err := r.db.Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) GetMerchantByShopDomain(shopDomain string) (*models.Merchant, error) {
	var m models.Merchant
	err := r.db.
		Where("shop_domain = ? AND token_status = ?", shopDomain, models.TokenStatusActive).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveShopCredentials stores a freshly exchanged token for the user's merchant
// row, creating it on first connect. Any other merchant still holding an
// active token for the same shop domain is invalidated in the same
// transaction, so a domain never has two live tokens. A first connect starts
// the local trial window; reconnects leave it alone.
func (r *gormRepository) SaveShopCredentials(userID uint, shopDomain, accessToken string, trialDays int) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Merchant{}).
			Where("shop_domain = ? AND user_id <> ? AND token_status = ?", shopDomain, userID, models.TokenStatusActive).
			Updates(map[string]interface{}{
				"token_status": models.TokenStatusInvalid,
				"access_token": nil,
			}).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Where("user_id = ?", userID).First(&merchant).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				return err
			}
			merchant = models.Merchant{
				UserID:             userID,
				SubscriptionStatus: models.SubscriptionStatusTrial,
			}
			if trialDays > 0 {
				trialEnd := now.AddDate(0, 0, trialDays)
				merchant.TrialStartsAt = &now
				merchant.TrialEndsAt = &trialEnd
			}
		}

		merchant.ShopDomain = &shopDomain
		merchant.AccessToken = &accessToken
		merchant.TokenStatus = models.TokenStatusActive
		merchant.LastValidatedAt = &now
		return tx.Save(&merchant).Error
	})
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *gormRepository) ActivateSubscription(merchantID uint, chargeID int64, planName string) error {
	return r.db.Model(&models.Merchant{}).
		Where("id = ?", merchantID).
		Updates(map[string]interface{}{
			"subscription_status": models.SubscriptionStatusActive,
			"charge_id":           chargeID,
			"plan_name":           planName,
		}).Error
}

func (r *gormRepository) CancelSubscription(merchantID uint) error {
	return r.db.Model(&models.Merchant{}).
		Where("id = ?", merchantID).
		Updates(map[string]interface{}{
			"subscription_status": models.SubscriptionStatusCancelled,
			"charge_id":           nil,
		}).Error
}

func (r *gormRepository) MarkTokenInvalid(merchantID uint) error {
	return r.db.Model(&models.Merchant{}).
		Where("id = ?", merchantID).
		Update("token_status", models.TokenStatusInvalid).Error
}

func (r *gormRepository) UpdateTokenValidated(merchantID uint, at time.Time) error {
	return r.db.Model(&models.Merchant{}).
		Where("id = ?", merchantID).
		Update("last_validated_at", at).Error
}

// RevokeToken clears the stored token. Running it twice is harmless; the row
// simply stays revoked.
func (r *gormRepository) RevokeToken(merchantID uint) error {
	return r.db.Model(&models.Merchant{}).
		Where("id = ?", merchantID).
		Updates(map[string]interface{}{
			"token_status": models.TokenStatusRevoked,
			"access_token": nil,
		}).Error
}

// PurgeShopData resets the billing state for every merchant row on the given
// shop domain. Tokens are handled separately by RevokeToken.
func (r *gormRepository) PurgeShopData(shopDomain string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Merchant{}).
			Where("shop_domain = ?", shopDomain).
			Updates(map[string]interface{}{
				"subscription_status": models.SubscriptionStatusCancelled,
				"charge_id":           nil,
				"plan_name":           "",
			}).Error
	})
}

func (r *gormRepository) HasWebhookEvent(webhookID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ShopWebhookEvent{}).
		Where("webhook_id = ?", webhookID).
		Count(&count).Error
	return count > 0, err
}

// CreateWebhookEventIfNotExists inserts a ledger row and reports whether the
// insert happened. The unique index on webhook_id absorbs concurrent
// redeliveries without a second query.
func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.ShopWebhookEvent) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "webhook_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
