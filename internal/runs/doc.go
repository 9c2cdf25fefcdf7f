// Package runs implements the bounded polling state machine for remote
// assistant runs.
//
// A run moves from submitted through polling to exactly one terminal
// outcome: Completed, Failed, Cancelled, Expired, or TimedOut. The poller
// waits a fixed interval between status queries and spends one attempt
// per non-terminal answer; unrecognized statuses also consume attempts,
// so a contract drift on the remote side can never poll forever. Interval
// and attempt count are configuration, not constants.
package runs
