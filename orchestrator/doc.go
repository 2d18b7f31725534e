// Package orchestrator runs one media file through the transcription
// pipeline: prepare the audio, transcribe it into an interval store,
// diarize the same audio, then emit one record per speaker segment.
//
// A run is strictly sequential. Model work goes through the transcriber and
// diarizer, which are normally backed by single-worker executors.
package orchestrator
