/*
Package observability exposes prometheus metrics for node invocations and
workflow runs.

Metrics implements node.Observer, so it can be handed to every node through
node.WithObserver. Collectors are registered on an injectable
prometheus.Registerer.
*/
package observability
