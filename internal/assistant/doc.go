// Package assistant holds the static registry of configured advisor
// variants. Built once at startup, failing fast on missing remote ids or
// duplicate keys; immutable afterwards and safe for unsynchronized
// concurrent reads.
package assistant
