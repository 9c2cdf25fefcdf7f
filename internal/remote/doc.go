// Package remote is the client boundary to the assistant execution
// service.
//
// The Client interface exposes six thin request/response operations over
// threads, messages, and runs. There is no retry logic here: every
// failure wraps as *Error for one attempt and the caller decides what to
// do. Writes are not idempotent — re-appending a message duplicates it
// and re-creating a run starts a second one — so callers must never
// blindly retry those two.
package remote
