// Package diarization splits audio into speaker turns.
//
// Backends implement Model and run on their own executor worker. Service
// accepts the prepared audio stream plus an optional speaker-count hint.
//
// # Backends
//
//   - diarization/pyannote: pyannote.audio HTTP sidecar
package diarization
