package repository

import (
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	GetStatsByUserID(userID uint) (*UserStats, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// LinkRepository defines the interface for link-related database operations
type LinkRepository interface {
	Create(link *models.Link) error
	GetByID(id uint) (*models.Link, error)
	GetByUUID(uuid string) (*models.Link, error)
	GetBySlug(slug string) (*models.Link, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Link, error)
	Update(link *models.Link) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Link, error)
	Count() (int64, error)
	CountByUserID(userID uint) (int64, error)
	Search(query string) ([]models.Link, error)
	GetRecentLinks(limit int) ([]models.Link, error)
	SlugExists(slug string) (bool, error)
	AddClicks(id uint, delta uint64) error
	SumClicksByUserID(userID uint) (int64, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// QueueRepository defines the interface for cache/queue operations
type QueueRepository interface {
	GetAllKeys() ([]string, error)
	GetValue(key string) (string, error)
	GetTTL(key string) (time.Duration, error)
	DeleteKey(key string) (int64, error)
	GetListLength(key string) (int64, error)
	FindKeysByPatterns(patterns []string) ([]string, error)
	DeleteKeys(keys []string) (int64, error)
}

// UserStats provides aggregated counts for a single user (links, clicks).
type UserStats struct {
	LinkCount  int64
	ClickCount int64
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Link    LinkRepository
	Setting SettingRepository
	Queue   QueueRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Link:    NewLinkRepository(db),
		Setting: NewSettingRepository(db),
		Queue:   NewQueueRepository(),
	}
}
