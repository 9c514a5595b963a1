package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/internal/pkg/cache"
	"github.com/ManuelReschke/LinkFox/internal/pkg/database"
)

const (
	CacheKeyLinksTotal  = "statistics:links:total"
	CacheKeyLinksDaily  = "statistics:links:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyClicksTotal = "statistics:clicks:total"
	CacheKeyUsers       = "statistics:users:total"
	CacheExpiration     = 30 * time.Minute
)

// StatisticsData holds the aggregate numbers shown on the public start page.
type StatisticsData struct {
	TodayLinks  int
	TotalUsers  int
	TotalLinks  int
	TotalClicks int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached aggregates are stale.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when the interval has passed.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Failed to update statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces a refresh on the next UpdateCacheIfNeeded call.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	// Count total links
	var totalLinks int64
	if err := db.Model(&models.Link{}).Count(&totalLinks).Error; err != nil {
		log.Printf("Error counting total links: %v", err)
		return err
	}

	// Count today's links
	var todayLinks int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Link{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayLinks).Error; err != nil {
		log.Printf("Error counting today's links: %v", err)
		return err
	}

	// Sum all recorded clicks
	var totalClicks int64
	if err := db.Model(&models.Link{}).Select("COALESCE(SUM(clicks), 0)").Row().Scan(&totalClicks); err != nil {
		log.Printf("Error summing clicks: %v", err)
		return err
	}

	// Count total users
	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	// Store values in cache
	if err := cache.Set(CacheKeyLinksTotal, strconv.FormatInt(totalLinks, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total links: %v", err)
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyLinksDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayLinks, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's links: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyClicksTotal, strconv.FormatInt(totalClicks, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total clicks: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total users: %v", err)
		return err
	}

	log.Printf("Statistics updated in cache: Total Links: %d, Today's Links: %d, Total Clicks: %d, Total Users: %d",
		totalLinks, todayLinks, totalClicks, totalUsers)

	return nil
}

// GetTotalLinks returns the total number of links from cache or database
func GetTotalLinks() int {
	val, err := cache.Get(CacheKeyLinksTotal)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.Link{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total links: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyLinksTotal, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total links: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTodayLinks returns the number of links created today from cache or database
func GetTodayLinks() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyLinksDaily, today)

	val, err := cache.Get(dailyKey)
	if err != nil {
		var count int64
		db := database.GetDB()
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)

		if err := db.Model(&models.Link{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
			log.Printf("Error counting today's links: %v", err)
			return 0
		}

		if err := cache.Set(dailyKey, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching today's links: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTotalClicks returns the total recorded click count from cache or database
func GetTotalClicks() int {
	val, err := cache.Get(CacheKeyClicksTotal)
	if err != nil {
		var total int64
		db := database.GetDB()
		if err := db.Model(&models.Link{}).Select("COALESCE(SUM(clicks), 0)").Row().Scan(&total); err != nil {
			log.Printf("Error summing clicks: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyClicksTotal, strconv.FormatInt(total, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total clicks: %v", err)
		}

		return int(total)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTotalUsers returns the total number of users from cache or database
func GetTotalUsers() int {
	val, err := cache.Get(CacheKeyUsers)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total users: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyUsers, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total users: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetStatisticsData returns all statistics data as StatisticsData structure
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TodayLinks:  GetTodayLinks(),
		TotalUsers:  GetTotalUsers(),
		TotalLinks:  GetTotalLinks(),
		TotalClicks: GetTotalClicks(),
	}
}
