// Package logging configures julian's slog loggers and keeps attribute
// names consistent across packages.
//
// Loggers are built once in the command layer with New and handed down.
// Packages that only need levelled messages depend on the small Logger
// interface instead of *slog.Logger:
//
//	logger, err := logging.New(logging.Options{Level: "debug", Format: "json"})
//	planner := scheduling.NewPlanner(cal, cfg.Scheduling,
//	    scheduling.WithLogger(logging.NewSlogAdapter(logger)))
//
// Email addresses of attendees and free/busy participants are hashed with
// UserHash before they are logged. Tokens are never logged directly.
package logging
