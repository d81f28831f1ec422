// Package logging provides structured logging for the query engine.
//
// # Overview
//
// Logging wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Automatic context field injection (request ID, query ID)
//   - JSON encoding by default, console encoding for local runs
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, uuid.NewString())
//	logger.Info(ctx, "query received", zap.String("collection", coll))
//
// # Configuration
//
// NewDefaultConfig supplies the defaults and the caller adjusts fields
// before calling NewLogger; this package does not read the environment.
//
// # Testing
//
// Use NewTestLogger for test assertions against recorded entries.
package logging
