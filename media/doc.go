// Package media turns an arbitrary media file into the audio the models expect.
//
// FFmpegPreparer probes the input with ffprobe, then has ffmpeg denoise and
// loudness-normalize it into 16 kHz mono PCM WAV in a temporary file. The
// returned stream can be rewound so the same bytes feed transcription and
// diarization, and it deletes the temporary file on Close.
package media
