// Package logging configures log/slog for carshop.
//
// Components take a *slog.Logger through an option and fall back to Nop()
// when none is given:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel(cfg.LogLevel),
//	    Format: logging.ParseFormat(cfg.LogFormat),
//	})
//	store := collection.New(client, collection.WithLogger(logger))
//
// The terminal UI owns stderr while it runs, so it logs to a file only
// (Config.File with Output set to io.Discard). The CLI commands log to stderr
// and, when a file is configured, to both through a fan-out handler.
package logging
