// Package logging provides structured logging for Appliance Link.
//
// It wraps the standard library's log/slog with configuration-driven
// level, format and output selection, and stamps every record with the
// service name and version.
//
// Components that need logging accept a narrow Logger interface
// (Debug/Info/Warn/Error) rather than this concrete type, so tests can
// substitute their own recorders. *Logger satisfies those interfaces.
//
// # Usage
//
//	log := logging.New(cfg.Logging, version)
//	sessionLog := log.With("serial", serial)
//	sessionLog.Info("session starting", "mode", mode)
package logging
