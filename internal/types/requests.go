package types

import (
	"time"

	"github.com/google/uuid"
)

// AnalyzeRequest represents the request body for a meal photo analysis.
// Each image is a data-URI encoded photo of the same portion.
type AnalyzeRequest struct {
	Images []string `json:"images" binding:"required,min=1,dive,required"`
}

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LogFoodRequest represents the request body for appending a finalized
// analysis result to the food log. CorrectedByUser marks that the user
// edited at least one AI-suggested field before saving.
type LogFoodRequest struct {
	FoodName        string  `json:"food_name" binding:"required"`
	PortionSize     string  `json:"portion_size" binding:"required,oneof=small medium large"`
	WeightGrams     float64 `json:"weight_grams" binding:"gte=0"`
	Calories        float64 `json:"calories" binding:"gte=0"`
	Protein         float64 `json:"protein" binding:"gte=0"`
	Carbs           float64 `json:"carbs" binding:"gte=0"`
	Fat             float64 `json:"fat" binding:"gte=0"`
	ConfidenceScore float64 `json:"confidence_score" binding:"gte=0,lte=100"`
	Items           []struct {
		Name        string  `json:"name" binding:"required"`
		Calories    float64 `json:"calories" binding:"gte=0"`
		Protein     float64 `json:"protein" binding:"gte=0"`
		Carbs       float64 `json:"carbs" binding:"gte=0"`
		Fat         float64 `json:"fat" binding:"gte=0"`
		WeightGrams float64 `json:"weight_grams" binding:"gte=0"`
	} `json:"items"`
	Image           string `json:"image"`
	CorrectedByUser bool   `json:"corrected_by_user"`
	IsMock          bool   `json:"is_mock"`
}

// DailySummaryResponse is the dashboard payload for one calendar day
type DailySummaryResponse struct {
	Date           string    `json:"date"`
	UserID         uuid.UUID `json:"user_id"`
	Calories       float64   `json:"calories"`
	Protein        float64   `json:"protein"`
	Carbs          float64   `json:"carbs"`
	Fat            float64   `json:"fat"`
	Entries        int       `json:"entries"`
	Streak         int       `json:"streak"`
	Points         int       `json:"points"`
	AnalysesUsed   int       `json:"analyses_used"`
	AnalysesQuota  int       `json:"analyses_quota"`
	GeneratedAt    time.Time `json:"generated_at"`
}
