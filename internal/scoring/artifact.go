package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ArtifactName keys the persisted deal-probability model in storage.
const ArtifactName = "deal_probability"

const artifactVersion = 1

// Artifact is the persisted model/scaler pair. The two are fit
// together and are only valid together, so they travel as one record.
type Artifact struct {
	Version     int       `json:"version"`
	TrainedAt   time.Time `json:"trained_at"`
	Samples     int       `json:"samples"`
	Placeholder bool      `json:"placeholder"`
	Scaler      *Scaler   `json:"scaler"`
	Model       *Logit    `json:"model"`
}

// Encode serializes the artifact for storage.
func (a *Artifact) Encode() ([]byte, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode artifact: %w", err)
	}
	return payload, nil
}

// DecodeArtifact parses a stored artifact and rejects anything that
// would produce a torn model/scaler pair: missing halves, mismatched
// widths, or the wrong version.
func DecodeArtifact(payload []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %d", a.Version)
	}
	if a.Scaler == nil || a.Model == nil {
		return nil, errors.New("artifact missing model or scaler")
	}
	if len(a.Scaler.Mean) != numFeatures ||
		len(a.Scaler.Std) != numFeatures ||
		len(a.Model.Weights) != numFeatures {
		return nil, errShapeMismatch
	}
	return &a, nil
}
