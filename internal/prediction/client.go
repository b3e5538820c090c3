package prediction

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

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/utils"
)

// FeatureVector carries the seven features the failure model was trained on.
// JSON keys match the training column names exactly.
type FeatureVector struct {
	TypeL              string  `json:"Type_L"`
	TypeM              string  `json:"Type_M"`
	AirTemperature     float64 `json:"Air temperature [K]"`
	ProcessTemperature float64 `json:"Process temperature [K]"`
	RotationalSpeed    float64 `json:"Rotational speed [rpm]"`
	Torque             float64 `json:"Torque [Nm]"`
	ToolWear           float64 `json:"Tool wear [min]"`
}

// Columns arranges the features in the model-mandated column order:
// Type_L, Type_M, Air temperature, Process temperature, Rotational speed,
// Torque, Tool wear. The categorical type flags are one-hot encoded.
func (f FeatureVector) Columns() []float64 {
	typeL := 0.0
	if strings.EqualFold(strings.TrimSpace(f.TypeL), "L") {
		typeL = 1.0
	}
	typeM := 0.0
	if strings.EqualFold(strings.TrimSpace(f.TypeM), "M") {
		typeM = 1.0
	}
	return []float64{
		typeL,
		typeM,
		f.AirTemperature,
		f.ProcessTemperature,
		f.RotationalSpeed,
		f.Torque,
		f.ToolWear,
	}
}

// Client calls the failure-prediction model server.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        *logger.Logger
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func New(opts Options, log *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("prediction baseURL required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: hc,
		log:        log.With("client", "PredictionClient"),
	}, nil
}

func NewFromEnv(log *logger.Logger) (*Client, error) {
	timeoutSeconds := utils.GetEnvAsInt("PREDICTION_TIMEOUT_SECONDS", 30, log)
	return New(Options{
		BaseURL: utils.GetEnv("PREDICTION_BASE_URL", "http://localhost:8501", log),
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, log)
}

// Predict sends one feature vector and returns the model's class label,
// truncated to an integer.
func (c *Client) Predict(ctx context.Context, features FeatureVector) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBody := struct {
		Instances [][]float64 `json:"instances"`
	}{
		Instances: [][]float64{features.Columns()},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("marshal predict request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create predict request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("execute predict request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read predict response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("prediction service returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Predictions []float64 `json:"predictions"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, fmt.Errorf("unmarshal predict response: %w", err)
	}
	if len(parsed.Predictions) == 0 {
		return 0, errors.New("prediction service returned no predictions")
	}
	return int(parsed.Predictions[0]), nil
}
