package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/kaloriapp/backend/internal/models"
	"github.com/kaloriapp/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(name, email, password, username string) (string, error)
	Login(email, password string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IVisionService defines the interface for meal photo analysis
type IVisionService interface {
	AnalyzeMeal(ctx context.Context, images []string) (*AnalysisResult, error)
	DemoMode() bool
}

// IFoodLogService defines the interface for food log operations
type IFoodLogService interface {
	LogFood(ctx context.Context, userID uuid.UUID, req *types.LogFoodRequest, imageURL string) (*models.FoodLogEntry, error)
	GetDailyAnalysisCount(ctx context.Context, userID uuid.UUID, date string) (int, error)
	ListEntries(ctx context.Context, userID uuid.UUID, limit int) ([]models.FoodLogEntry, error)
	DailySummary(ctx context.Context, userID uuid.UUID, date string, quota int) (*types.DailySummaryResponse, error)
}

// IPhotoService defines the interface for food photo storage
type IPhotoService interface {
	StoreFoodPhoto(ctx context.Context, payload string) (string, error)
}
