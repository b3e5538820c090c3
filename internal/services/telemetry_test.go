package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/duinokary/supplychain-backend/internal/prediction"
	"github.com/duinokary/supplychain-backend/internal/types"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func fullReadingInput() RecordReadingInput {
	return RecordReadingInput{
		TypeL:              strPtr("L"),
		TypeM:              strPtr(""),
		AirTemperature:     floatPtr(298.1),
		ProcessTemperature: floatPtr(308.6),
		RotationalSpeed:    floatPtr(1551),
		Torque:             floatPtr(42.8),
		ToolWear:           floatPtr(10),
	}
}

func TestRecordReadingAndPredict(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	r := newTestRepos(db, log)
	predictor := &stubPredictor{label: 1}
	svc := NewTelemetryService(db, log, r.asset, r.meterReading, predictor)

	owner := mustCreateUser(t, db, "Acme", types.RoleManufacturer, "0xacme")
	asset := &types.Asset{Name: "CNC Mill", OwnerID: owner.ID}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}

	reading, err := svc.RecordReadingAndPredict(context.Background(), asset.ID, fullReadingInput())
	if err != nil {
		t.Fatalf("RecordReadingAndPredict: %v", err)
	}
	if reading.Prediction == nil || *reading.Prediction != 1 {
		t.Fatalf("prediction = %v, want 1", reading.Prediction)
	}

	stored, err := r.meterReading.GetByAssetID(context.Background(), nil, asset.ID)
	if err != nil {
		t.Fatalf("fetch readings: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("readings = %d, want 1", len(stored))
	}
	if stored[0].Prediction == nil || *stored[0].Prediction != 1 {
		t.Errorf("stored prediction = %v, want 1", stored[0].Prediction)
	}
	if stored[0].Torque != 42.8 {
		t.Errorf("stored torque = %v, want 42.8", stored[0].Torque)
	}

	want := prediction.FeatureVector{
		TypeL:              "L",
		TypeM:              "",
		AirTemperature:     298.1,
		ProcessTemperature: 308.6,
		RotationalSpeed:    1551,
		Torque:             42.8,
		ToolWear:           10,
	}
	if predictor.lastFeatures != want {
		t.Errorf("predictor received %+v, want %+v", predictor.lastFeatures, want)
	}
}

func TestRecordReadingMissingFeaturesRejected(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	r := newTestRepos(db, log)
	predictor := &stubPredictor{label: 1}
	svc := NewTelemetryService(db, log, r.asset, r.meterReading, predictor)

	owner := mustCreateUser(t, db, "Acme", types.RoleManufacturer, "0xacme")
	asset := &types.Asset{Name: "CNC Mill", OwnerID: owner.ID}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}

	partial := fullReadingInput()
	partial.Torque = nil

	for name, input := range map[string]RecordReadingInput{
		"empty":   {},
		"partial": partial,
	} {
		if _, err := svc.RecordReadingAndPredict(context.Background(), asset.ID, input); !errors.Is(err, ErrValidation) {
			t.Errorf("%s input: err = %v, want ErrValidation", name, err)
		}
	}

	stored, err := r.meterReading.GetByAssetID(context.Background(), nil, asset.ID)
	if err != nil {
		t.Fatalf("fetch readings: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("readings = %d, want 0 for rejected inputs", len(stored))
	}
}

func TestRecordReadingAssetNotFound(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	r := newTestRepos(db, log)
	svc := NewTelemetryService(db, log, r.asset, r.meterReading, &stubPredictor{label: 0})

	_, err := svc.RecordReadingAndPredict(context.Background(), uuid.New(), fullReadingInput())
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("err = %v, want ErrAssetNotFound", err)
	}
}

func TestRecordReadingPredictorFailureDoesNotPersist(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	r := newTestRepos(db, log)
	predictor := &stubPredictor{err: errors.New("model server down")}
	svc := NewTelemetryService(db, log, r.asset, r.meterReading, predictor)

	owner := mustCreateUser(t, db, "Acme", types.RoleManufacturer, "0xacme")
	asset := &types.Asset{Name: "Lathe", OwnerID: owner.ID}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}

	if _, err := svc.RecordReadingAndPredict(context.Background(), asset.ID, fullReadingInput()); err == nil {
		t.Fatal("expected error from failing predictor")
	}

	stored, err := r.meterReading.GetByAssetID(context.Background(), nil, asset.ID)
	if err != nil {
		t.Fatalf("fetch readings: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("readings = %d, want 0 when prediction fails", len(stored))
	}
}
