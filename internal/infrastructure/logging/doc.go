// Package logging provides structured logging for Automata Core.
//
// It wraps log/slog with configuration-driven level, format and output
// selection, and stamps every record with the service name and build
// version. Components receive a Logger (or define their own minimal
// logging interface) rather than importing slog directly.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("engine started", "rules", engine.RuleCount())
//
//	ruleLog := log.Component("rules")
//	ruleLog.Debug("rule fired", "rule_id", id)
package logging
