// Package timeouts holds the durations shared by the fiscal service and its
// command-line tools.
package timeouts

import "time"

// Shutdown bounds graceful stop of the gRPC server and the regeneration loop.
const Shutdown = 5 * time.Second

// RegenerationBatch bounds a single pass over stale runs.
const RegenerationBatch = 30 * time.Second

// StoreOpen bounds opening the database and applying migrations.
const StoreOpen = 10 * time.Second
