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

	"medica-diagnosis/internal/prediction"
)

// EnsembleModel is the model variant requested for refinement rounds.
const EnsembleModel = "ensemble"

// Vitals are the numeric vital signs sent with every oracle request.
type Vitals struct {
	BloodPressure    string  `json:"blood_pressure"`
	HeartRate        int     `json:"heart_rate"`
	Age              int     `json:"age"`
	Temperature      float64 `json:"temperature"`
	OxygenSaturation int     `json:"oxygen_saturation"`
}

// PredictRequest is the first-round body. Symptoms stays the comma joined
// string the user typed.
type PredictRequest struct {
	Symptoms string `json:"symptoms"`
	Vitals
}

// RepredictRequest is the refinement-round body.
type RepredictRequest struct {
	Symptoms         []string `json:"symptoms"`
	SelectedSymptoms []string `json:"selected_symptoms"`
	TopDiseases      []string `json:"top_diseases"`
	Vitals
	Model string `json:"model"`
}

// OracleClient talks to the external prediction service.
type OracleClient interface {
	Predict(ctx context.Context, token string, req PredictRequest) (*prediction.Result, error)
	Repredict(ctx context.Context, token string, req RepredictRequest) (*prediction.Result, error)
}

type oracleClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewOracleClient builds a client for the oracle at baseURL. A zero timeout
// leaves requests unbounded.
func NewOracleClient(baseURL string, timeout time.Duration, logger zerolog.Logger) OracleClient {
	return &oracleClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "oracle").Logger(),
	}
}

func (c *oracleClient) Predict(ctx context.Context, token string, req PredictRequest) (*prediction.Result, error) {
	return c.call(ctx, prediction.RoundPredict, "/predict", token, req)
}

func (c *oracleClient) Repredict(ctx context.Context, token string, req RepredictRequest) (*prediction.Result, error) {
	if req.Model == "" {
		req.Model = EnsembleModel
	}
	return c.call(ctx, prediction.RoundRepredict, "/repredict", token, req)
}

func (c *oracleClient) call(ctx context.Context, round prediction.Round, path, token string, payload any) (*prediction.Result, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", round, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("round", round.String()).Msg("oracle request failed")
		return nil, &prediction.OracleError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &prediction.OracleError{Status: resp.StatusCode, Message: err.Error()}
	}

	c.logger.Debug().
		Str("round", round.String()).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("oracle response")

	return prediction.Normalize(round, resp.StatusCode, body)
}
