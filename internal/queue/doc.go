// Package queue provides the two thread-safe conduits of a validation run.
//
// WorkQueue is a FIFO of candidates waiting to be probed. Workers take
// from it until it is empty. ResultChannel collects finished outcomes
// from workers and hands them to the consumer in batches.
//
// Both types are safe for concurrent use and never block a producer.
package queue
