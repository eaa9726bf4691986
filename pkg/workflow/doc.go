/*
Package workflow loads, validates and executes workflow graphs.

A Definition lists configured nodes and the links between them. The Executor
builds one node instance per graph node from a registry and runs the graph
layer by layer: nodes of a layer run concurrently, and each node receives the
outputs of its predecessors keyed by their graph ids.

Run and task status is recorded in a ports.RunStore. Canceling the run context
with cause ErrPaused pauses the run, and Resume continues it without invoking
completed nodes again.
*/
package workflow
