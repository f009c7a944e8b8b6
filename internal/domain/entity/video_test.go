package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoIsTerminal(t *testing.T) {
	terminal := []VideoStatus{VideoStatusCompleted, VideoStatusFailed, VideoStatusTimeout}
	for _, status := range terminal {
		v := Video{Status: status}
		assert.True(t, v.IsTerminal(), "status %s", status)
	}

	nonTerminal := []VideoStatus{VideoStatusPendingUpload, VideoStatusProcessing}
	for _, status := range nonTerminal {
		v := Video{Status: status}
		assert.False(t, v.IsTerminal(), "status %s", status)
	}
}

func TestMarkCompletedClearsErrorMessage(t *testing.T) {
	v := Video{Status: VideoStatusProcessing, ErrorMessage: "stale"}
	v.MarkCompleted()

	assert.Equal(t, VideoStatusCompleted, v.Status)
	assert.Empty(t, v.ErrorMessage)
	require.NotNil(t, v.ProcessingCompletedAt)
	assert.Equal(t, *v.ProcessingCompletedAt, v.UpdatedAt)
}

func TestMarkFailedRecordsError(t *testing.T) {
	v := Video{Status: VideoStatusProcessing}
	v.MarkFailed("download: object not found")

	assert.Equal(t, VideoStatusFailed, v.Status)
	assert.Equal(t, "download: object not found", v.ErrorMessage)
	require.NotNil(t, v.ProcessingCompletedAt)
}

func TestMarkTimeoutUsesFixedMessage(t *testing.T) {
	v := Video{Status: VideoStatusProcessing}
	v.MarkTimeout()

	assert.Equal(t, VideoStatusTimeout, v.Status)
	assert.Equal(t, TimeoutMessage, v.ErrorMessage)
	require.NotNil(t, v.ProcessingCompletedAt)
}
