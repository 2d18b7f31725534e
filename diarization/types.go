package diarization

// SpeakerSegment is a time range attributed to one speaker label.
type SpeakerSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Duration returns the segment length in seconds.
func (s SpeakerSegment) Duration() float64 { return s.End - s.Start }

// Request is the unit of work submitted to a diarization executor.
type Request struct {
	// Audio is the whole prepared audio file.
	Audio []byte
	// Speakers is the expected number of speakers. Zero lets the model decide.
	Speakers int
}
