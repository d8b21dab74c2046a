package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kaloriapp/backend/config"
	"github.com/kaloriapp/backend/internal/models"
)

var (
	// ErrEmptyReply is returned when the model reply has no content left
	// after stripping Markdown fences.
	ErrEmptyReply = errors.New("model reply is empty")
	// ErrInvalidReply is returned when the model reply is not valid JSON
	// matching the expected nutrition schema.
	ErrInvalidReply = errors.New("model reply does not match the expected schema")
)

// AnalysisResult represents the structure of a meal analysis as returned by
// the vision model
type AnalysisResult struct {
	FoodName        string            `json:"food_name"`
	PortionSize     string            `json:"portion_size"`
	WeightGrams     float64           `json:"weight_grams"`
	Calories        float64           `json:"calories"`
	Protein         float64           `json:"protein"`
	Carbs           float64           `json:"carbs"`
	Fat             float64           `json:"fat"`
	ConfidenceScore float64           `json:"confidence_score,omitempty"`
	Items           []models.FoodItem `json:"items,omitempty"`
	IsMock          bool              `json:"is_mock,omitempty"`
}

const visionSystemPrompt = `You are an expert nutritionist. Analyze the submitted meal photos and respond with exactly this JSON format:
{
  "food_name": "Overall name of the meal (e.g. Grilled Chicken Plate)",
  "portion_size": "small" | "medium" | "large",
  "weight_grams": total_estimated_weight,
  "calories": total_calories,
  "protein": total_protein,
  "carbs": total_carbs,
  "fat": total_fat,
  "items": [
    { "name": "Component name (e.g. Chicken)", "calories": 200, "protein": 30, "carbs": 0, "fat": 5, "weight_grams": 150 },
    { "name": "Component name (e.g. Rice)", "calories": 150, "protein": 3, "carbs": 30, "fat": 1, "weight_grams": 100 }
  ],
  "confidence_score": confidence between 0 and 100
}
Return only the JSON, no other explanation.`

const visionUserPrompt = "What are the nutritional values of this meal? Treat photos taken from multiple angles as the same single portion, not separate meals."

// VisionService handles interactions with the vision-capable chat model.
// With no API key configured it runs in demo mode: no outbound calls, a
// canned result after an artificial delay.
type VisionService struct {
	apiKey    string
	apiURL    string
	model     string
	maxTokens int
	mockDelay time.Duration
	client    *http.Client
}

// NewVisionService creates a new VisionService instance
func NewVisionService(cfg *config.Config) *VisionService {
	if cfg.OpenAIAPIKey == "" {
		log.Printf("[VisionService] No API key configured, running in demo mode")
	}

	return &VisionService{
		apiKey:    cfg.OpenAIAPIKey,
		apiURL:    cfg.OpenAIAPIURL,
		model:     cfg.OpenAIModel,
		maxTokens: cfg.OpenAIMaxTokens,
		mockDelay: cfg.MockDelay,
		client: &http.Client{
			Timeout: cfg.OpenAITimeout,
		},
	}
}

// DemoMode reports whether the service serves canned results instead of
// calling the model.
func (s *VisionService) DemoMode() bool {
	return s.apiKey == ""
}

// chatMessage is one turn of the chat-completion conversation. Content is
// either a plain string (system turn) or a list of content parts (user turn
// mixing text and images).
type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

// chatRequest represents a request to the chat-completions API
type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// AnalyzeMeal runs one photo analysis: prompt, single model call, parse.
// No retry is performed; a failed call surfaces immediately.
func (s *VisionService) AnalyzeMeal(ctx context.Context, images []string) (*AnalysisResult, error) {
	if s.DemoMode() {
		return s.mockResult(ctx)
	}

	raw, err := s.invoke(ctx, s.buildMessages(images))
	if err != nil {
		return nil, err
	}

	return parseResult(raw)
}

// buildMessages produces the fixed system instruction plus one user turn
// carrying the instruction text and every image, in order.
func (s *VisionService) buildMessages(images []string) []chatMessage {
	parts := make([]contentPart, 0, len(images)+1)
	parts = append(parts, contentPart{Type: "text", Text: visionUserPrompt})
	for _, img := range images {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageRef{URL: img},
		})
	}

	return []chatMessage{
		{Role: "system", Content: visionSystemPrompt},
		{Role: "user", Content: parts},
	}
}

// invoke sends the built prompt to the model and returns the raw text reply
func (s *VisionService) invoke(ctx context.Context, messages []chatMessage) (string, error) {
	reqBody := chatRequest{
		Model:     s.model,
		Messages:  messages,
		MaxTokens: s.maxTokens,
		ResponseFormat: map[string]string{
			"type": "json_object",
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[VisionService] API request failed with status %d: %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}

// parseResult strips Markdown code fences from the raw model reply, parses
// the remainder as JSON and validates it against the nutrition schema.
// A malformed reply is an all-or-nothing failure, no partial extraction.
func parseResult(raw string) (*AnalysisResult, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return nil, ErrEmptyReply
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}

	if err := validateResult(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}

	return &result, nil
}

func validateResult(r *AnalysisResult) error {
	if r.FoodName == "" {
		return errors.New("missing food_name")
	}
	switch r.PortionSize {
	case "small", "medium", "large":
	default:
		return fmt.Errorf("invalid portion_size %q", r.PortionSize)
	}
	if r.WeightGrams < 0 || r.Calories < 0 || r.Protein < 0 || r.Carbs < 0 || r.Fat < 0 {
		return errors.New("negative nutrition value")
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 100 {
		return fmt.Errorf("confidence_score %v out of range", r.ConfidenceScore)
	}
	for i, item := range r.Items {
		if item.Name == "" {
			return fmt.Errorf("item %d missing name", i)
		}
		if item.WeightGrams < 0 || item.Calories < 0 || item.Protein < 0 || item.Carbs < 0 || item.Fat < 0 {
			return fmt.Errorf("item %d has a negative nutrition value", i)
		}
	}
	return nil
}

// mockResult returns the fixed demo payload after an artificial delay that
// emulates real model latency in the UI.
func (s *VisionService) mockResult(ctx context.Context) (*AnalysisResult, error) {
	select {
	case <-time.After(s.mockDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &AnalysisResult{
		FoodName:        "Izgara Tavuk & Salata (Demo)",
		PortionSize:     "medium",
		WeightGrams:     350,
		Calories:        450,
		Protein:         45,
		Carbs:           12,
		Fat:             22,
		ConfidenceScore: 85,
		IsMock:          true,
	}, nil
}
