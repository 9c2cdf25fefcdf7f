// Package dedupe suppresses redelivered Telegram updates.
//
// Long-poll retries and double-tapped callback buttons deliver the same
// update more than once; the Suppressor's atomic check-and-mark ensures
// each key is handled exactly once within a TTL window. The cache is
// size-bounded with O(1) oldest-first eviction.
package dedupe
