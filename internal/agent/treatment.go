package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type TreatmentRequest struct {
	Disease    string `json:"disease"`
	Age        string `json:"age"`
	Duration   string `json:"duration"`
	Symptoms   string `json:"symptoms"`
	BloodGroup string `json:"bloodGroup"`
}

type Medication struct {
	Name   string `json:"name"`
	Intake string `json:"intake,omitempty"`
	Timing string `json:"timing,omitempty"`
}

type Treatment struct {
	Medications []Medication `json:"medications"`
	Lifestyle   []string     `json:"lifestyle"`
	Followup    string       `json:"followup"`
}

// TreatmentResponse is the planner's answer; Treatment is nil when the
// service returned no plan.
type TreatmentResponse struct {
	ID        string     `json:"id,omitempty"`
	Treatment *Treatment `json:"treatment"`
	Error     string     `json:"error,omitempty"`
}

type TreatmentClient interface {
	RequestTreatment(ctx context.Context, req TreatmentRequest) (*TreatmentResponse, error)
}

type treatmentClient struct {
	url        string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewTreatmentClient builds a client for the planner at baseURL. A zero
// timeout leaves requests unbounded.
func NewTreatmentClient(baseURL string, timeout time.Duration, logger zerolog.Logger) TreatmentClient {
	return &treatmentClient{
		url: strings.TrimRight(baseURL, "/") + "/api/treatment",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "planner").Logger(),
	}
}

func (c *treatmentClient) RequestTreatment(ctx context.Context, tr TreatmentRequest) (*TreatmentResponse, error) {
	jsonBody, err := json.Marshal(tr)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("disease", tr.Disease).Msg("planner request failed")
		return nil, fmt.Errorf("failed to reach treatment service: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("planner response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("treatment API error: %s - %s", resp.Status, string(body))
	}

	var result TreatmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode treatment response: %w", err)
	}
	return &result, nil
}
