package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FoodItem is one detected component of an analyzed meal (e.g. the chicken
// on a plate of chicken and rice).
type FoodItem struct {
	Name        string  `json:"name"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	WeightGrams float64 `json:"weight_grams"`
}

// JSONBItemArray is a custom type for handling food item arrays in JSONB
type JSONBItemArray []FoodItem

// Value implements the driver.Valuer interface
func (a JSONBItemArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBItemArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBItemArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// FoodLogEntry is one finalized (possibly user-edited) analysis result
// persisted to a user's food log.
type FoodLogEntry struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	UserID          uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	FoodName        string         `gorm:"size:255;not null" json:"food_name"`
	PortionSize     string         `gorm:"size:10;not null" json:"portion_size"`
	WeightGrams     float64        `gorm:"type:float" json:"weight_grams"`
	Calories        float64        `gorm:"type:float" json:"calories"`
	Protein         float64        `gorm:"type:float" json:"protein"`
	Carbs           float64        `gorm:"type:float" json:"carbs"`
	Fat             float64        `gorm:"type:float" json:"fat"`
	ConfidenceScore float64        `gorm:"type:float" json:"confidence_score"`
	Items           JSONBItemArray `gorm:"type:jsonb;not null;default:'[]'" json:"items"`
	ImageURL        string         `gorm:"size:255" json:"image_url"`
	CorrectedByUser bool           `gorm:"not null;default:false" json:"corrected_by_user"`
	IsMock          bool           `gorm:"not null;default:false" json:"is_mock"`
	// LogDate is the UTC calendar date (YYYY-MM-DD) the entry counts
	// against, denormalized for daily-count and summary queries.
	LogDate string `gorm:"size:10;not null;index" json:"log_date"`
}
