package scoring

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pipelineiq/pipelineiq/internal/store"
)

// MinTrainingLeads is the smallest history that gets a real fit.
// Below it a placeholder model keeps cold-start scoring working.
const MinTrainingLeads = 5

// ArtifactStore is the slice of the store the scorer needs: persist
// and load the single model artifact.
type ArtifactStore interface {
	SaveModelArtifact(ctx context.Context, name string, payload []byte) error
	GetModelArtifact(ctx context.Context, name string) ([]byte, error)
}

// Scorer owns the persisted deal-probability artifact. Training is
// serialized so two concurrent retrains cannot interleave writes.
type Scorer struct {
	store ArtifactStore
	mu    sync.Mutex
}

func NewScorer(s ArtifactStore) *Scorer {
	return &Scorer{store: s}
}

// Train fits a fresh artifact on the lead history and persists it,
// replacing any previous artifact wholesale.
func (s *Scorer) Train(ctx context.Context, history []LeadFeatures) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifact := Fit(history)
	payload, err := artifact.Encode()
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveModelArtifact(ctx, ArtifactName, payload); err != nil {
		return nil, err
	}
	return artifact, nil
}

// Load fetches and validates the persisted artifact.
func (s *Scorer) Load(ctx context.Context) (*Artifact, error) {
	payload, err := s.store.GetModelArtifact(ctx, ArtifactName)
	if err != nil {
		return nil, err
	}
	return DecodeArtifact(payload)
}

// Ensure returns a usable artifact, retraining when none is stored or
// the stored one fails validation.
func (s *Scorer) Ensure(ctx context.Context, history []LeadFeatures) (*Artifact, error) {
	if artifact, err := s.Load(ctx); err == nil {
		return artifact, nil
	}
	return s.Train(ctx, history)
}

// Fit builds the model/scaler pair from the lead history. Only leads
// with a positive deal value carry signal; the label is 1 exactly for
// Won leads. Too little history gets the placeholder fit.
func Fit(history []LeadFeatures) *Artifact {
	var samples [][]float64
	var labels []float64
	for _, f := range history {
		if f.DealValue <= 0 {
			continue
		}
		samples = append(samples, f.Vector())
		if f.Stage == store.StageWon {
			labels = append(labels, 1)
		} else {
			labels = append(labels, 0)
		}
	}

	if len(samples) < MinTrainingLeads {
		return placeholderArtifact()
	}

	scaler := FitScaler(samples)
	scaled := make([][]float64, len(samples))
	for i, x := range samples {
		scaled[i], _ = scaler.Transform(x)
	}

	return &Artifact{
		Version:   artifactVersion,
		TrainedAt: time.Now().UTC(),
		Samples:   len(samples),
		Scaler:    scaler,
		Model:     FitLogit(scaled, labels),
	}
}

// placeholderArtifact fits the model on two synthetic examples so
// downstream scoring never hard-fails on an empty history.
func placeholderArtifact() *Artifact {
	samples := [][]float64{
		{1, 100, 1, 1, 10},
		{2, 200, 2, 2, 20},
	}
	labels := []float64{0, 1}

	scaler := FitScaler(samples)
	scaled := make([][]float64, len(samples))
	for i, x := range samples {
		scaled[i], _ = scaler.Transform(x)
	}

	return &Artifact{
		Version:     artifactVersion,
		TrainedAt:   time.Now().UTC(),
		Samples:     len(samples),
		Placeholder: true,
		Scaler:      scaler,
		Model:       FitLogit(scaled, labels),
	}
}

// Score predicts the close probability for a lead on a 0-100 scale.
// It is total: a nil or unusable artifact falls back to Heuristic and
// the result is always clamped to [0, 100].
func Score(f LeadFeatures, artifact *Artifact) float64 {
	if artifact == nil || artifact.Scaler == nil || artifact.Model == nil {
		return Heuristic(f)
	}

	scaled, err := artifact.Scaler.Transform(f.Vector())
	if err != nil {
		return Heuristic(f)
	}
	p, err := artifact.Model.Probability(scaled)
	if err != nil || math.IsNaN(p) {
		return Heuristic(f)
	}

	return clamp(p * 100)
}

// Heuristic is the deterministic fallback score: a base of 20 plus 5
// per touchpoint, up to 30 from spend, and a stage bonus.
func Heuristic(f LeadFeatures) float64 {
	score := 20.0
	score += float64(f.Touchpoints) * 5
	score += math.Min(f.CampaignSpend/100, 30)
	switch f.Stage {
	case store.StageSQL:
		score += 15
	case store.StageOpportunity:
		score += 30
	case store.StageWon:
		score += 100
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ScoredLead is one row of the high-probability ranking.
type ScoredLead struct {
	LeadID      int64       `json:"lead_id"`
	Name        string      `json:"lead_name"`
	Stage       store.Stage `json:"stage"`
	DealValue   float64     `json:"deal_value"`
	Touchpoints int         `json:"num_touchpoints"`
	Probability float64     `json:"probability"`
}

// ScoreLeads scores a company's leads against the persisted model
// (training one over the same history if needed) and returns those at
// or above threshold, best first. It never fails: when no usable
// artifact can be produced every lead gets the heuristic score.
func (s *Scorer) ScoreLeads(ctx context.Context, leads []store.Lead, industry string, campaignCosts map[int64]float64, threshold float64) []ScoredLead {
	history := make([]LeadFeatures, 0, len(leads))
	for _, l := range leads {
		history = append(history, BuildFeatures(l, industry, campaignCosts))
	}

	artifact, err := s.Ensure(ctx, history)
	if err != nil {
		artifact = nil // Score falls back to the heuristic
	}

	scored := make([]ScoredLead, 0, len(leads))
	for i, l := range leads {
		scored = append(scored, ScoredLead{
			LeadID:      l.ID,
			Name:        l.Name,
			Stage:       l.Stage,
			DealValue:   l.DealValue,
			Touchpoints: len(l.Touchpoints),
			Probability: Score(history[i], artifact),
		})
	}
	return Rank(scored, threshold)
}

// Rank keeps leads scoring at or above threshold, best first. The
// sort is stable so equal scores keep their input order.
func Rank(leads []ScoredLead, threshold float64) []ScoredLead {
	var kept []ScoredLead
	for _, l := range leads {
		if l.Probability >= threshold {
			kept = append(kept, l)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Probability > kept[j].Probability
	})
	return kept
}
