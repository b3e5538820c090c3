package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/prediction"
	"github.com/duinokary/supplychain-backend/internal/repos"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type TelemetryService interface {
	RecordReadingAndPredict(ctx context.Context, assetID uuid.UUID, input RecordReadingInput) (*types.MeterReading, error)
	ListReadings(ctx context.Context, assetID uuid.UUID) ([]*types.MeterReading, error)
}

// RecordReadingInput carries one telemetry sample. Pointer fields distinguish
// an absent feature from a zero reading so partial bodies are rejected.
type RecordReadingInput struct {
	TypeL              *string  `json:"Type_L"`
	TypeM              *string  `json:"Type_M"`
	AirTemperature     *float64 `json:"Air temperature [K]"`
	ProcessTemperature *float64 `json:"Process temperature [K]"`
	RotationalSpeed    *float64 `json:"Rotational speed [rpm]"`
	Torque             *float64 `json:"Torque [Nm]"`
	ToolWear           *float64 `json:"Tool wear [min]"`
}

// featureVector requires all seven model features and assembles them in
// wire form.
func (in RecordReadingInput) featureVector() (prediction.FeatureVector, error) {
	var missing []string
	if in.TypeL == nil {
		missing = append(missing, "Type_L")
	}
	if in.TypeM == nil {
		missing = append(missing, "Type_M")
	}
	if in.AirTemperature == nil {
		missing = append(missing, "Air temperature [K]")
	}
	if in.ProcessTemperature == nil {
		missing = append(missing, "Process temperature [K]")
	}
	if in.RotationalSpeed == nil {
		missing = append(missing, "Rotational speed [rpm]")
	}
	if in.Torque == nil {
		missing = append(missing, "Torque [Nm]")
	}
	if in.ToolWear == nil {
		missing = append(missing, "Tool wear [min]")
	}
	if len(missing) > 0 {
		return prediction.FeatureVector{}, fmt.Errorf("%w: missing features: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return prediction.FeatureVector{
		TypeL:              *in.TypeL,
		TypeM:              *in.TypeM,
		AirTemperature:     *in.AirTemperature,
		ProcessTemperature: *in.ProcessTemperature,
		RotationalSpeed:    *in.RotationalSpeed,
		Torque:             *in.Torque,
		ToolWear:           *in.ToolWear,
	}, nil
}

type telemetryService struct {
	db  *gorm.DB
	log *logger.Logger

	assetRepo        repos.AssetRepo
	meterReadingRepo repos.MeterReadingRepo

	predictor Predictor
}

func NewTelemetryService(db *gorm.DB, log *logger.Logger, assetRepo repos.AssetRepo, meterReadingRepo repos.MeterReadingRepo, predictor Predictor) TelemetryService {
	serviceLog := log.With("service", "TelemetryService")
	return &telemetryService{
		db:               db,
		log:              serviceLog,
		assetRepo:        assetRepo,
		meterReadingRepo: meterReadingRepo,
		predictor:        predictor,
	}
}

// RecordReadingAndPredict scores one telemetry sample against the failure
// model and persists the raw features together with the predicted label.
func (ts *telemetryService) RecordReadingAndPredict(ctx context.Context, assetID uuid.UUID, input RecordReadingInput) (*types.MeterReading, error) {
	asset, err := ts.assetRepo.GetByID(ctx, nil, assetID)
	if err != nil {
		return nil, fmt.Errorf("error fetching asset: %w", err)
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}

	features, err := input.featureVector()
	if err != nil {
		return nil, err
	}

	label, err := ts.predictor.Predict(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("error predicting failure: %w", err)
	}

	reading := &types.MeterReading{
		AssetID:            asset.ID,
		TypeL:              features.TypeL,
		TypeM:              features.TypeM,
		AirTemperature:     features.AirTemperature,
		ProcessTemperature: features.ProcessTemperature,
		RotationalSpeed:    features.RotationalSpeed,
		Torque:             features.Torque,
		ToolWear:           features.ToolWear,
		Prediction:         &label,
	}

	if err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ts.meterReadingRepo.Create(ctx, tx, []*types.MeterReading{reading}); err != nil {
			return fmt.Errorf("error creating meter reading: %w", err)
		}
		return nil
	}); err != nil {
		ts.log.Error("RecordReadingAndPredict transaction error", "assetID", assetID, "error", err)
		return nil, err
	}

	ts.log.Info("Meter reading recorded", "assetID", assetID, "readingID", reading.ID, "prediction", label)
	return reading, nil
}

func (ts *telemetryService) ListReadings(ctx context.Context, assetID uuid.UUID) ([]*types.MeterReading, error) {
	asset, err := ts.assetRepo.GetByID(ctx, nil, assetID)
	if err != nil {
		return nil, fmt.Errorf("error fetching asset: %w", err)
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}
	return ts.meterReadingRepo.GetByAssetID(ctx, nil, assetID)
}
