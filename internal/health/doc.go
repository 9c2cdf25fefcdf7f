// Package health serves the liveness and readiness endpoints process
// supervisors probe. /health answers as long as the process runs; /ready
// reflects whether the Telegram transport is up.
package health
