package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kaloriapp/backend/internal/models"
	"github.com/kaloriapp/backend/internal/types"
)

const (
	pointsPerLog          = 10
	pointsCorrectionBonus = 5
	dailyCountCacheTTL    = 60 * time.Second
)

// FoodLogService persists finalized analysis results and maintains the
// per-profile gamification state.
type FoodLogService struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewFoodLogService creates a new FoodLogService instance. The Redis client
// is optional; without it daily counts are always read from the database.
func NewFoodLogService(db *gorm.DB, redisClient *redis.Client) *FoodLogService {
	return &FoodLogService{
		db:    db,
		redis: redisClient,
	}
}

// LogFood appends an entry to the user's food log and updates points and
// streak. The streak counts consecutive days with at least one log: a second
// log the same day leaves it unchanged, a log after a gap resets it to 1.
func (s *FoodLogService) LogFood(ctx context.Context, userID uuid.UUID, req *types.LogFoodRequest, imageURL string) (*models.FoodLogEntry, error) {
	today := Today()

	items := make(models.JSONBItemArray, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.FoodItem{
			Name:        item.Name,
			Calories:    item.Calories,
			Protein:     item.Protein,
			Carbs:       item.Carbs,
			Fat:         item.Fat,
			WeightGrams: item.WeightGrams,
		})
	}

	entry := models.FoodLogEntry{
		ID:              uuid.New(),
		UserID:          userID,
		FoodName:        req.FoodName,
		PortionSize:     req.PortionSize,
		WeightGrams:     req.WeightGrams,
		Calories:        req.Calories,
		Protein:         req.Protein,
		Carbs:           req.Carbs,
		Fat:             req.Fat,
		ConfidenceScore: req.ConfidenceScore,
		Items:           items,
		ImageURL:        imageURL,
		CorrectedByUser: req.CorrectedByUser,
		IsMock:          req.IsMock,
		LogDate:         today,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to save food log entry: %w", err)
		}

		var profile models.UserProfile
		if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}

		profile.Points += pointsPerLog
		if req.CorrectedByUser {
			profile.Points += pointsCorrectionBonus
		}

		switch profile.LastLogDate {
		case today:
			// second log today, streak unchanged
		case yesterday(today):
			profile.Streak++
		default:
			profile.Streak = 1
		}
		profile.LastLogDate = today

		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidateDailyCount(ctx, userID, today)

	return &entry, nil
}

// GetDailyAnalysisCount returns how many entries the user logged on the
// given UTC date, cached briefly in Redis.
func (s *FoodLogService) GetDailyAnalysisCount(ctx context.Context, userID uuid.UUID, date string) (int, error) {
	cacheKey := fmt.Sprintf("daily_count:%s:%s", userID, date)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			if count, err := strconv.Atoi(cached); err == nil {
				return count, nil
			}
		}
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.FoodLogEntry{}).
		Where("user_id = ? AND log_date = ?", userID, date).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count daily entries: %w", err)
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey, int(count), dailyCountCacheTTL).Err(); err != nil {
			log.Printf("[FoodLogService] Failed to cache daily count: %v", err)
		}
	}

	return int(count), nil
}

// ListEntries returns the user's log entries, newest first
func (s *FoodLogService) ListEntries(ctx context.Context, userID uuid.UUID, limit int) ([]models.FoodLogEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var entries []models.FoodLogEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	return entries, nil
}

// DailySummary aggregates one day of the food log plus the profile's
// gamification state for the dashboard.
func (s *FoodLogService) DailySummary(ctx context.Context, userID uuid.UUID, date string, quota int) (*types.DailySummaryResponse, error) {
	var totals struct {
		Calories float64
		Protein  float64
		Carbs    float64
		Fat      float64
		Entries  int64
	}
	err := s.db.WithContext(ctx).Model(&models.FoodLogEntry{}).
		Select("COALESCE(SUM(calories),0) as calories, COALESCE(SUM(protein),0) as protein, COALESCE(SUM(carbs),0) as carbs, COALESCE(SUM(fat),0) as fat, COUNT(*) as entries").
		Where("user_id = ? AND log_date = ?", userID, date).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily totals: %w", err)
	}

	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	used, err := s.GetDailyAnalysisCount(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	return &types.DailySummaryResponse{
		Date:          date,
		UserID:        userID,
		Calories:      totals.Calories,
		Protein:       totals.Protein,
		Carbs:         totals.Carbs,
		Fat:           totals.Fat,
		Entries:       int(totals.Entries),
		Streak:        profile.Streak,
		Points:        profile.Points,
		AnalysesUsed:  used,
		AnalysesQuota: quota,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

func (s *FoodLogService) invalidateDailyCount(ctx context.Context, userID uuid.UUID, date string) {
	if s.redis == nil {
		return
	}
	key := fmt.Sprintf("daily_count:%s:%s", userID, date)
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		log.Printf("[FoodLogService] Failed to invalidate daily count cache: %v", err)
	}
}

func yesterday(today string) string {
	day, err := time.Parse("2006-01-02", today)
	if err != nil {
		return ""
	}
	return day.AddDate(0, 0, -1).Format("2006-01-02")
}
