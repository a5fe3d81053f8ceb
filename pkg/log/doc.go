/*
Package log provides structured logging for tandem using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("diskcache")               │          │
	│  │  - WithKey("user:42")                       │          │
	│  │  - WithPath("/var/cache/tandem")            │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  JSON: {"level":"error","component":        │          │
	│  │   "diskcache","key":"user:42","message":    │          │
	│  │   "manifest row missing file"}              │          │
	│  │  Console: 10:30AM ERR manifest row missing  │          │
	│  │   file component=diskcache key=user:42      │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from diskcache, memcache, and cachectl
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithKey: Add the cache key a log line concerns
  - WithPath: Add the engine root path a log line concerns

# Usage

Initializing the Logger:

	import "github.com/cuemby/tandem/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Component Loggers:

	diskLog := log.WithPath(log.WithComponent("diskcache"), opts.Path)
	log.WithKey(diskLog, key).Error().Msg("manifest row missing file, self-healing")

	memLog := log.WithComponent("memcache")
	memLog.Debug().Int("evicted", n).Msg("trim cycle complete")

Every engine that is constructed with error logging enabled attaches a
component (and, for pkg/diskcache, a path) logger once at construction
time and reuses it for the lifetime of the engine. WithKey then builds
a short-lived per-call child logger on top of that, one per failure
logged, rather than calling log.WithComponent on every failure path.

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create a child logger once per engine instance, reuse it
  - Avoids repetitive field specification on every call site

Error Logging Pattern:
  - Always use .Err(err) for error objects
  - Gated by the engine's logErrors flag, per the public
    error-propagation contract: a caller who disabled logging sees a
    silent bool/ok failure, never a surprise log line

# Security

Log Content:
  - Never log a cached value's bytes, only its key and size
  - Redact tokens, passwords, API keys a caller might have used as keys
    if they chose to (the engine itself treats keys as opaque strings)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - pkg/diskcache and pkg/memcache for the call sites that use this
    package's component loggers
*/
package log
