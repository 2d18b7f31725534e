package transcription

// SpeechWord is one recognized word with its time range in seconds.
type SpeechWord struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Request is the unit of work submitted to a transcription executor.
type Request struct {
	// Audio is the whole prepared audio file.
	Audio []byte
	// Language is an optional hint (e.g. "en"). Empty lets the model detect it.
	Language string
}
