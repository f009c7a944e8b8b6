package usecase

import (
	"math"
	"strings"

	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
)

// IssueRule maps issue strings containing any of its keywords (checked
// case-insensitively, in rule order) to a category.
type IssueRule struct {
	Category string
	Keywords []string
}

// DefaultIssueRules classify per-frame issue strings. Anything no rule
// matches lands in the technical category; audio issues bypass the rules.
var DefaultIssueRules = []IssueRule{
	{Category: "lighting", Keywords: []string{"light", "bright", "dark"}},
	{Category: "framing", Keywords: []string{"fram", "compos", "crop"}},
}

// AggregateResult carries the final scores, each rounded to one decimal.
type AggregateResult struct {
	LightingScore  float64
	SharpnessScore float64
	FramingScore   float64
	AudioScore     *float64
	FinalScore     float64
	Issues         entity.IssueReport
}

// Aggregate combines per-frame scores and the optional audio score into the
// final record. Each visual dimension is averaged across frames
// independently before the three are combined; the final score blends video
// quality with audio 60/40 when an audio rating exists.
func Aggregate(frames []entity.FrameScore, audio *entity.AudioScore, rules []IssueRule) (*AggregateResult, error) {
	if len(frames) == 0 {
		return nil, entity.NewStageError(entity.StageAggregate, entity.ErrNoFrames)
	}

	var lighting, sharpness, framing float64
	for _, f := range frames {
		lighting += f.Lighting
		sharpness += f.Sharpness
		framing += f.Framing
	}
	n := float64(len(frames))
	lighting /= n
	sharpness /= n
	framing /= n

	videoQuality := (lighting + sharpness + framing) / 3

	finalScore := videoQuality
	var audioScore *float64
	if audio != nil && audio.Overall != nil {
		finalScore = videoQuality*0.6 + *audio.Overall*0.4
		rounded := round1(*audio.Overall)
		audioScore = &rounded
	}

	issues := classifyIssues(frames, rules)
	if audio != nil {
		issues.Audio = append(issues.Audio, audio.Issues...)
	}

	return &AggregateResult{
		LightingScore:  round1(lighting),
		SharpnessScore: round1(sharpness),
		FramingScore:   round1(framing),
		AudioScore:     audioScore,
		FinalScore:     round1(finalScore),
		Issues:         issues,
	}, nil
}

// round1 rounds to one decimal, half away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// classifyIssues buckets frame issues by the first matching rule, keeping
// insertion order and dropping exact-string duplicates within a category.
func classifyIssues(frames []entity.FrameScore, rules []IssueRule) entity.IssueReport {
	report := entity.IssueReport{
		Lighting:  []string{},
		Framing:   []string{},
		Technical: []string{},
		Audio:     []string{},
	}
	buckets := map[string]*[]string{
		"lighting":  &report.Lighting,
		"framing":   &report.Framing,
		"technical": &report.Technical,
	}
	seen := make(map[string]map[string]bool)

	for _, frame := range frames {
		for _, issue := range frame.Issues {
			category := categorize(issue, rules)
			bucket, ok := buckets[category]
			if !ok {
				bucket = &report.Technical
				category = "technical"
			}
			if seen[category] == nil {
				seen[category] = make(map[string]bool)
			}
			if seen[category][issue] {
				continue
			}
			seen[category][issue] = true
			*bucket = append(*bucket, issue)
		}
	}

	return report
}

func categorize(issue string, rules []IssueRule) string {
	lower := strings.ToLower(issue)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return "technical"
}
