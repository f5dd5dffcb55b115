// Package logging provides structured logging for testrig on top of the
// standard slog package.
//
// Log entries carry a subsystem identifier so output from the different parts
// of the harness (DataStore, APIClient, Browser, Runner, Report) can be
// filtered by log aggregation tooling or plain grep.
//
// # Usage
//
//	logging.Init(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Runner", "starting suite with %d scenarios", n)
//	logging.Debug("DataStore", "read %s", path)
//	logging.Error("APIClient", err, "POST %s failed", url)
//
// # Request logging
//
// The API client logs every request through LogRequest, which records method,
// URL, status code and elapsed time in a single line:
//
//	logging.LogRequest("APIClient", "POST", url, 201, elapsed)
//
// The package is safe for concurrent use; level filtering happens at the
// handler so suppressed messages cost no allocations.
package logging
