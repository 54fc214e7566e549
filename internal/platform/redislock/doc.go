// Package redislock provides a per-key mutual exclusion lock backed by Redis,
// so that attempts for the same learner topic are folded in one at a time
// across every API instance.
//
// A lock is a key set with NX and a TTL holding a random token; release
// deletes the key only while it still holds that token.
package redislock
