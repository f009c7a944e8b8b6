package entity

import (
	"errors"
	"fmt"
)

// Stage identifies the pipeline step a fatal error came from.
type Stage string

const (
	StageDownload      Stage = "download"
	StageProbe         Stage = "probe"
	StageExtractFrames Stage = "extract_frames"
	StageExtractAudio  Stage = "extract_audio"
	StageAggregate     Stage = "aggregate"
)

// ErrNoFrames is returned by aggregation when extraction yielded zero frames.
var ErrNoFrames = errors.New("no frames extracted from video")

// StageError wraps an underlying failure with the pipeline stage it occurred
// in. Download, probe, extraction and aggregation errors are fatal; audio
// extraction errors are absorbed by the orchestrator.
type StageError struct {
	Stage Stage
	Err   error
}

func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
