// Package transcription turns audio into time-stamped words.
//
// A backend implements Model and runs on a dedicated executor worker, so
// the model is only ever touched by one goroutine. Service sits in front of
// that executor (usually wrapped in provider middleware) and accepts the
// prepared audio stream.
//
// # Backends
//
//   - transcription/whisper: faster-whisper HTTP sidecar
//
// # Usage
//
//	ex, err := executor.Spawn(ctx, "transcription", whisper.Loader(cfg))
//	svc := transcription.NewService(ex)
//	words, err := svc.Transcribe(ctx, audio)
package transcription
