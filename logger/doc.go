// Package logger provides structured logging for resourcekit using zerolog.
//
// The resource client and the transport accept a *Logger and default to a
// no-op logger, so the SDK stays silent unless the application opts in.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "resourcectl").WithComponent("resource")
//	log.Debug("retrieved", logger.Fields(logger.FieldKind, "Widget", logger.FieldLocation, "/r/1"))
package logger
