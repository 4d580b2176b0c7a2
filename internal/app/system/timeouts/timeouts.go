// Package timeouts centralizes the context timeouts handlers apply to
// database and mail I/O.
//
// Guidelines:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads
//   - Medium: list queries and simple writes
//   - Long: multi-collection sequences (approval saga, alert fan-out, sweeps)
package timeouts

import "time"

const (
	Ping   = 2 * time.Second
	Short  = 5 * time.Second
	Medium = 10 * time.Second
	Long   = 30 * time.Second
)
