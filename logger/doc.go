// Package logger provides structured logging for speakline using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with map-based structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("executor")
//	log.Info("task completed", logger.Fields("executor", "whisper", "duration_ms", 812))
package logger
