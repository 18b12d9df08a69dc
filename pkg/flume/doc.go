// Package flume provides leveled logging with an asynchronous worker
// pipeline. Producers post fully owned message envelopes to a bounded
// in-memory queue and return immediately; a pool of workers drains
// the queue and performs all formatting and I/O outside the caller's
// path.
//
// Key Features:
//
//   - Bounded queue with blocking or drop-oldest overflow behavior
//   - Shared worker pools, one pool serving many loggers
//   - Synchronous mode with the same API when no pool is attached
//   - Structured logging with key-value fields
//   - Text and JSON output formats
//   - File, console, rotating-file, syslog, NATS, and Redis sinks
//   - Process-safe file logging using Unix file locks (flock)
//   - Overrun counter exposing how many messages drop-oldest evicted
//   - Comprehensive metrics for pools, loggers, and sinks
//
// Basic Usage:
//
//	logger, err := flume.NewFileLogger("app", "/var/log/app.log")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer logger.Close()
//
//	logger.Info("application started")
//	logger.Errorf("connect failed: %v", err)
//
// Asynchronous Logging:
//
//	pool, err := flume.NewPool(8192, 4)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Stop()
//
//	logger, err := flume.New("app",
//		flume.WithSinks(sink),
//		flume.WithPool(pool),
//		flume.WithOverflowPolicy(flume.OverflowDropOldest),
//	)
//
// Log calls on an asynchronous logger copy the message into an
// envelope the pipeline owns and return before any I/O happens. When
// the queue is full, OverflowBlock waits for space and
// OverflowDropOldest evicts the oldest waiting envelope instead,
// counting the eviction in the pool's overrun counter. Neither case
// is an error.
//
// The Registry:
//
//	flume.InitPool(8192, 1)
//	logger, _ := flume.New("app", flume.WithPool(flume.SharedPool()))
//	flume.Register(logger)
//
//	// On process exit
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	flume.Shutdown(ctx)
//
// Shutdown closes every registered logger and stops the shared pool,
// draining messages already accepted before the workers exit.
//
// Structured Logging:
//
//	logger.InfoWithFields("request served", map[string]interface{}{
//		"method": "GET",
//		"status": 200,
//	})
//
// Error Handling:
//
// Failures inside the pipeline never reach the logging call site.
// They go to the logger's error handler:
//
//	logger.SetErrorHandler(func(e flume.LogError) {
//		fmt.Fprintf(os.Stderr, "log pipeline: %v\n", e)
//	})
//
// Thread Safety:
//
// All methods on Logger, Pool, and Registry are safe for concurrent
// use. Records handed to sinks are valid only for the duration of the
// call; sinks that retain data must copy it.
package flume
