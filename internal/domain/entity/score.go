package entity

// FrameScore is the vision capability's rating of a single frame on a 1-10
// scale.
type FrameScore struct {
	Lighting  float64
	Sharpness float64
	Framing   float64
	Overall   float64
	Issues    []string
}

// NeutralFrameScore is the fixed fallback substituted when frame analysis
// fails. A single bad frame must never abort the job.
func NeutralFrameScore() FrameScore {
	return FrameScore{
		Lighting:  5,
		Sharpness: 5,
		Framing:   5,
		Overall:   5,
		Issues:    []string{"Analysis failed"},
	}
}

// AudioScore is the audio capability's rating. All numeric fields are nil
// when the track was silent or analysis failed; quality ratings from silence
// are meaningless.
type AudioScore struct {
	Clarity    *float64
	Noise      *float64
	Distortion *float64
	Overall    *float64
	Issues     []string
}

func SilentAudioScore() AudioScore {
	return AudioScore{Issues: []string{"No audio detected"}}
}

func FailedAudioScore() AudioScore {
	return AudioScore{Issues: []string{"Audio analysis failed"}}
}
