package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"gorm.io/gorm"
)

// linkRepository implements the LinkRepository interface
type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new link repository instance
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

// Create creates a new link in the database
func (r *linkRepository) Create(link *models.Link) error {
	return r.db.Create(link).Error
}

// GetByID retrieves a link by its ID
func (r *linkRepository) GetByID(id uint) (*models.Link, error) {
	var link models.Link
	err := r.db.First(&link, id).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetByUUID retrieves a link by its UUID
func (r *linkRepository) GetByUUID(uuid string) (*models.Link, error) {
	var link models.Link
	err := r.db.Where("uuid = ?", uuid).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetBySlug retrieves a link by its public slug
func (r *linkRepository) GetBySlug(slug string) (*models.Link, error) {
	var link models.Link
	err := r.db.Where("slug = ?", slug).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetByUserID retrieves a paginated list of links for a user
func (r *linkRepository) GetByUserID(userID uint, offset, limit int) ([]models.Link, error) {
	var links []models.Link
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&links).Error
	return links, err
}

// Update updates an existing link in the database
func (r *linkRepository) Update(link *models.Link) error {
	return r.db.Save(link).Error
}

// Delete soft deletes a link by its ID
func (r *linkRepository) Delete(id uint) error {
	return r.db.Delete(&models.Link{}, id).Error
}

// List retrieves a paginated list of links
func (r *linkRepository) List(offset, limit int) ([]models.Link, error) {
	var links []models.Link
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&links).Error
	return links, err
}

// Count returns the total number of links
func (r *linkRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Link{}).Count(&count).Error
	return count, err
}

// CountByUserID returns the number of links of a user
func (r *linkRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Link{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Search searches for links by slug, title or target URL
func (r *linkRepository) Search(query string) ([]models.Link, error) {
	var links []models.Link
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("slug LIKE ? OR title LIKE ? OR target_url LIKE ?", searchPattern, searchPattern, searchPattern).
		Find(&links).Error
	return links, err
}

// GetRecentLinks retrieves the most recently created links
func (r *linkRepository) GetRecentLinks(limit int) ([]models.Link, error) {
	var links []models.Link
	err := r.db.Order("created_at DESC").Limit(limit).Find(&links).Error
	return links, err
}

// SlugExists checks whether the given slug is already taken
func (r *linkRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Link{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// AddClicks adds a click delta to a link's counter
func (r *linkRepository) AddClicks(id uint, delta uint64) error {
	if delta == 0 {
		return nil
	}
	return r.db.Model(&models.Link{}).
		Where("id = ?", id).
		UpdateColumn("clicks", gorm.Expr("clicks + ?", delta)).Error
}

// SumClicksByUserID returns the total click count over all links of a user
func (r *linkRepository) SumClicksByUserID(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Link{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(clicks), 0)").Row().Scan(&total)
	return total, err
}

// GetDailyStats returns daily link creation statistics for a date range
func (r *linkRepository) GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error) {
	var results []struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}

	err := r.db.Model(&models.Link{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') as date, COUNT(*) as count").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE_FORMAT(created_at, '%Y-%m-%d')").
		Order("date").
		Find(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get daily link stats: %w", err)
	}

	dailyStats := make([]models.DailyStats, len(results))
	for i, result := range results {
		dailyStats[i] = models.DailyStats{
			Date:  result.Date,
			Count: int(result.Count),
		}
	}

	return dailyStats, nil
}
