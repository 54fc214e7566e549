// Package task runs question generation in the background. A difficulty
// adjustment emits an event, the event handler turns it into a persisted task,
// and a fixed set of workers executes it. Unfinished tasks are re-queued on
// startup and tasks stuck in processing are reset periodically.
package task
