// Package resource provides admission control for queries and builds.
//
// A Controller bounds the number of queries answered at once, lets a
// bounded number wait, optionally rate-limits admission, and rejects the
// rest with ErrUnavailable so the caller can shed load. It also serializes
// index builds and throttles dump reads.
//
// All methods are safe on a nil Controller, where they impose no limits.
package resource
