package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ugcscore/ugc-analysis-service/internal/domain/entity"
)

func floatPtr(v float64) *float64 { return &v }

func TestAggregateAveragesDimensionsIndependently(t *testing.T) {
	frames := []entity.FrameScore{
		{Lighting: 9, Sharpness: 7, Framing: 8},
		{Lighting: 7, Sharpness: 9, Framing: 6},
	}

	result, err := Aggregate(frames, nil, DefaultIssueRules)
	require.NoError(t, err)

	assert.Equal(t, 8.0, result.LightingScore)
	assert.Equal(t, 8.0, result.SharpnessScore)
	assert.Equal(t, 7.0, result.FramingScore)
	// (8 + 8 + 7) / 3 = 7.666... rounds to 7.7
	assert.Equal(t, 7.7, result.FinalScore)
	assert.Nil(t, result.AudioScore)
}

func TestAggregateBlendsAudioScore(t *testing.T) {
	frames := []entity.FrameScore{
		{Lighting: 9, Sharpness: 7, Framing: 8},
		{Lighting: 7, Sharpness: 9, Framing: 6},
	}
	audio := &entity.AudioScore{Overall: floatPtr(6)}

	result, err := Aggregate(frames, audio, DefaultIssueRules)
	require.NoError(t, err)

	// 0.6*7.666... + 0.4*6 = 7.0
	assert.Equal(t, 7.0, result.FinalScore)
	require.NotNil(t, result.AudioScore)
	assert.Equal(t, 6.0, *result.AudioScore)
}

func TestAggregateNullAudioLeavesFinalScoreUnblended(t *testing.T) {
	frames := []entity.FrameScore{
		{Lighting: 8, Sharpness: 8, Framing: 8},
	}
	audio := &entity.AudioScore{Issues: []string{"No audio detected"}}

	result, err := Aggregate(frames, audio, DefaultIssueRules)
	require.NoError(t, err)

	assert.Equal(t, 8.0, result.FinalScore)
	assert.Nil(t, result.AudioScore)
	assert.Equal(t, []string{"No audio detected"}, result.Issues.Audio)
}

func TestAggregateZeroFramesIsFatal(t *testing.T) {
	_, err := Aggregate(nil, nil, DefaultIssueRules)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrNoFrames)

	var stageErr *entity.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, entity.StageAggregate, stageErr.Stage)
}

func TestAggregateRoundsHalfAwayFromZero(t *testing.T) {
	frames := []entity.FrameScore{
		{Lighting: 7.25, Sharpness: 7.25, Framing: 7.25},
	}

	result, err := Aggregate(frames, nil, DefaultIssueRules)
	require.NoError(t, err)

	assert.Equal(t, 7.3, result.LightingScore)
	assert.Equal(t, 7.3, result.FinalScore)
}

func TestClassifyIssuesDedupsAndKeepsOrder(t *testing.T) {
	frames := []entity.FrameScore{
		{Issues: []string{"Poor lighting", "Slightly overexposed", "Motion blur artifacts"}},
		{Issues: []string{"Poor lighting", "Motion blur artifacts"}},
	}

	result, err := Aggregate(pad(frames), nil, DefaultIssueRules)
	require.NoError(t, err)

	// "Slightly" matches the "light" keyword, so both land in lighting.
	assert.Equal(t, []string{"Poor lighting", "Slightly overexposed"}, result.Issues.Lighting)
	assert.Equal(t, []string{"Motion blur artifacts"}, result.Issues.Technical)
}

func TestClassifyIssuesCategoryPriority(t *testing.T) {
	frames := []entity.FrameScore{
		{Issues: []string{
			"Too dark in the corners",
			"Bad framing of the subject",
			"Awkward composition",
			"Subject is cropped out",
			"Motion blur artifacts",
		}},
	}

	result, err := Aggregate(pad(frames), nil, DefaultIssueRules)
	require.NoError(t, err)

	assert.Equal(t, []string{"Too dark in the corners"}, result.Issues.Lighting)
	assert.Equal(t, []string{
		"Bad framing of the subject",
		"Awkward composition",
		"Subject is cropped out",
	}, result.Issues.Framing)
	assert.Equal(t, []string{"Motion blur artifacts"}, result.Issues.Technical)
}

func TestClassifyIssuesCaseSensitiveDedup(t *testing.T) {
	frames := []entity.FrameScore{
		{Issues: []string{"Too dark", "too dark"}},
	}

	result, err := Aggregate(pad(frames), nil, DefaultIssueRules)
	require.NoError(t, err)

	// Different casings are distinct issues; original casing is kept.
	assert.Equal(t, []string{"Too dark", "too dark"}, result.Issues.Lighting)
}

// pad fills in neutral numeric scores so tests can focus on issues.
func pad(frames []entity.FrameScore) []entity.FrameScore {
	out := make([]entity.FrameScore, len(frames))
	for i, f := range frames {
		f.Lighting, f.Sharpness, f.Framing, f.Overall = 5, 5, 5, 5
		out[i] = f
	}
	return out
}
