// Package scriptlog is a structured logging engine for scripts and
// long-running processes.
//
// A Logger accepts records, runs them through a sampler, a level gate,
// filters and enrichers, formats them as text or JSON lines and writes them
// to an ordered set of destinations: a rotating log file, the console, the
// OS event log and any custom handler.
//
// Key Features:
//
//   - Size, age and calendar based rotation ("10M", "7", "daily", "2w", "1mo")
//   - Numbered backups with an optional zip archive that is merged without
//     losing data when a step fails
//   - Process-safe writes using a sidecar flock around rotate and append
//   - Retries with a fixed delay for transient write failures
//   - Optional write buffering with batch flushes
//   - Scoped properties released with defer
//   - Configuration from YAML, JSON or TOML files and SCRIPTLOG_* variables
//
// Basic Usage:
//
//	logger, err := scriptlog.New(&scriptlog.Config{
//		LogName:     "backup",
//		LogPath:     "~/logs",
//		LogLevel:    "INFO",
//		Rotation:    "daily",
//		LogCountMax: 7,
//		Compress:    true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer logger.Close()
//
//	defer logger.Push("job", "nightly").Release()
//	logger.Info("backup started")
//	logger.Successf("copied %d files", n)
//
// Loading Configuration:
//
//	cfg, err := scriptlog.LoadConfig("")
//	if err != nil {
//		log.Fatal(err)
//	}
//	logger, err := scriptlog.New(cfg)
//
// Errors raised while logging never reach the caller of Log. They are passed
// to the ErrorHandler, which defaults to one line on stderr.
package scriptlog
