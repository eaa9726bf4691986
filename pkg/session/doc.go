/*
Package session serializes work on a run across goroutines and replicas.

A Manager holds one reference-counted mutex per key in process memory and,
when configured with a ports.DistributedLocker, a distributed lock on the same
key for the duration of the work.
*/
package session
