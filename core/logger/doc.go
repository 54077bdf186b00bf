// Package logger provides a structured logging facility based on Zap.
//
// It builds a logger for either a service (JSON lines) or an operator at a
// terminal (colored console output), and ties request logs to the RayID that
// the rayid middleware assigns.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Generated file", zap.String("file", "rc.conf"))
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
