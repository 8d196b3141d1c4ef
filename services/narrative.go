package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"wanderplan/config"
	"wanderplan/planner"
)

const huggingFaceBaseURL = "https://api-inference.huggingface.co/models/"

// ErrNarratorDisabled is returned when no inference key is configured.
var ErrNarratorDisabled = errors.New("huggingface API key not configured")

// Narrator writes a short prose overview of an itinerary. Without an API key,
// or when the model call fails, it falls back to a deterministic summary.
type Narrator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewNarrator(cfg config.AIConfig, logger *zap.Logger) *Narrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Narrator{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: huggingFaceBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
	if n.apiKey != "" {
		logger.Info("narrative model configured", zap.String("op", "services.NewNarrator"), zap.String("model", n.model))
	} else {
		logger.Info("HUGGINGFACE_API_KEY not set, narratives use fallback text", zap.String("op", "services.NewNarrator"))
	}
	return n
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfResponse []struct {
	GeneratedText string `json:"generated_text"`
}

// Narrate never fails: model errors are logged and replaced by FallbackNarrative.
func (n *Narrator) Narrate(ctx context.Context, it *planner.GeneratedItinerary) string {
	if it == nil {
		return ""
	}
	text, err := n.Generate(ctx, it)
	if err != nil {
		if !errors.Is(err, ErrNarratorDisabled) {
			n.logger.Warn("narrative generation failed, using fallback",
				zap.String("op", "services.Narrate"), zap.Error(err))
		}
		return FallbackNarrative(it)
	}
	return text
}

// Generate asks the inference endpoint for a narrative.
func (n *Narrator) Generate(ctx context.Context, it *planner.GeneratedItinerary) (string, error) {
	if n == nil || n.apiKey == "" {
		return "", ErrNarratorDisabled
	}

	jsonBody, err := json.Marshal(hfRequest{
		Inputs: buildPrompt(it),
		Parameters: hfParameters{
			MaxNewTokens:   300,
			Temperature:    0.6,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+n.model, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", fmt.Errorf("narrative model is loading")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read narrative response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("huggingface API error (%d): %s", resp.StatusCode, string(body))
	}

	var hfResp hfResponse
	if err := json.Unmarshal(body, &hfResp); err != nil {
		return "", fmt.Errorf("parse narrative response: %w", err)
	}
	if len(hfResp) == 0 || strings.TrimSpace(hfResp[0].GeneratedText) == "" {
		return "", fmt.Errorf("empty narrative response")
	}
	return strings.TrimSpace(hfResp[0].GeneratedText), nil
}

func buildPrompt(it *planner.GeneratedItinerary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[INST] You are a helpful travel assistant. Write a short, friendly overview of this trip.\n\n")
	fmt.Fprintf(&b, "Trip: %s | %s to %s | %d traveller(s) | Budget: %.0f | Estimated total: %.0f\n\n",
		it.Title, it.StartDate, it.EndDate, it.Travellers, it.Budget, it.Totals.GrandTotal)
	for _, s := range it.PerDestinationSummary {
		if s.Nights == 0 {
			continue
		}
		fmt.Fprintf(&b, "  - %s: %d night(s), about %.0f\n", s.Destination, s.Nights, s.EstimatedCost)
	}
	b.WriteString("\nIn 120 words or fewer, describe the flow of the trip and one tip per destination. ")
	if it.BudgetStatus == planner.OverBudget {
		b.WriteString("Mention that the plan is over budget and where savings are easiest. ")
	}
	b.WriteString("[/INST]")
	return b.String()
}

// FallbackNarrative summarises an itinerary without a model.
func FallbackNarrative(it *planner.GeneratedItinerary) string {
	var stops []string
	for _, s := range it.PerDestinationSummary {
		if s.Nights == 0 {
			continue
		}
		stops = append(stops, fmt.Sprintf("%d night(s) in %s", s.Nights, s.Destination))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d-day trip for %d traveller(s): %s.", it.TotalDays, it.Travellers, strings.Join(stops, ", "))
	fmt.Fprintf(&b, " Estimated total %.0f against a budget of %.0f", it.Totals.GrandTotal, it.Budget)
	switch it.BudgetStatus {
	case planner.OverBudget:
		fmt.Fprintf(&b, ", %.0f over.", it.Totals.GrandTotal-it.Budget)
		if it.Totals.Accommodation >= it.Totals.GrandTotal/2 {
			b.WriteString(" Accommodation is the largest cost; a cheaper stay saves the most.")
		}
	default:
		fmt.Fprintf(&b, ", leaving %.0f to spare.", it.Budget-it.Totals.GrandTotal)
	}
	if it.Degraded {
		b.WriteString(" Prices are estimates because the destination catalog was unavailable.")
	}
	return b.String()
}
