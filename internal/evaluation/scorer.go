package evaluation

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/outrank-dev/outrank/internal/models"
)

// Score bands. A judged attribute lands in a band chosen by the judgment
// value, with a random offset so equal judgments still produce a total
// order.
const (
	trueScoreFloor  = 0.7
	trueScoreCeil   = 1.0
	falseScoreFloor = 0.0
	falseScoreCeil  = 0.3

	// Template fallback scores sit above the midpoint: the candidate was
	// generated and judged, we just could not read the judgment.
	fallbackScoreFloor = 0.5
	fallbackScoreCeil  = 1.0
)

// structuredJudgment is the shape of a judgment value that carries a
// numeric score and reasoning instead of a bare boolean.
type structuredJudgment struct {
	Score       *float64 `mapstructure:"score"`
	Explanation string   `mapstructure:"explanation"`
}

// Scorer converts parsed judgments into attribute scores. Scoring is
// randomized within bands; a Scorer is safe for concurrent use.
type Scorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewScorer returns a Scorer seeded for reproducibility. A negative seed
// uses a non-deterministic source.
func NewScorer(seed int64) *Scorer {
	if seed < 0 {
		seed = rand.Int63()
	}
	return &Scorer{rng: rand.New(rand.NewSource(seed))}
}

func (s *Scorer) inBand(floor, ceil float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return floor + s.rng.Float64()*(ceil-floor)
}

// ScoreJudgments assigns a score to each attribute of a parsed judgment
// object. Boolean values land in the true/false bands, structured values
// with a numeric score use it directly, and anything else gets a uniform
// random score. Attributes come back sorted by name.
func (s *Scorer) ScoreJudgments(judgments map[string]any) []models.AttributeScore {
	names := make([]string, 0, len(judgments))
	for name := range judgments {
		names = append(names, name)
	}
	sort.Strings(names)

	scores := make([]models.AttributeScore, 0, len(names))
	for _, name := range names {
		scores = append(scores, s.scoreValue(name, judgments[name]))
	}
	return scores
}

func (s *Scorer) scoreValue(name string, value any) models.AttributeScore {
	switch v := value.(type) {
	case bool:
		if v {
			return models.AttributeScore{Name: name, Score: s.inBand(trueScoreFloor, trueScoreCeil)}
		}
		return models.AttributeScore{Name: name, Score: s.inBand(falseScoreFloor, falseScoreCeil)}

	case map[string]any:
		var sj structuredJudgment
		if err := mapstructure.Decode(v, &sj); err == nil && sj.Score != nil {
			return models.AttributeScore{
				Name:        name,
				Score:       clamp01(*sj.Score),
				Explanation: sj.Explanation,
			}
		}
	}

	// Numbers, strings, nested shapes we cannot read: the judgment is
	// present but unusable, so the attribute gets a coin-flip score.
	return models.AttributeScore{Name: name, Score: s.inBand(0.0, 1.0)}
}

// ScoreTemplateFallback scores attributes recovered from the rubric
// template when the judge's response was unparseable.
func (s *Scorer) ScoreTemplateFallback(names []string) []models.AttributeScore {
	scores := make([]models.AttributeScore, 0, len(names))
	for _, name := range names {
		scores = append(scores, models.AttributeScore{
			Name:  name,
			Score: s.inBand(fallbackScoreFloor, fallbackScoreCeil),
		})
	}
	return scores
}

// FallbackScore is the last resort when neither the judge response nor
// the template yields attributes.
func (s *Scorer) FallbackScore() float64 {
	return s.inBand(0.0, 1.0)
}

// Aggregate collapses attribute scores into a single candidate score, the
// arithmetic mean.
func Aggregate(scores []models.AttributeScore) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, a := range scores {
		sum += a.Score
	}
	return sum / float64(len(scores))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
