/*
Package progress reports node lifecycle events while a run executes.

A Handler receives every event; Hooks adapts it to domain.LifecycleHooks so it
can be passed to the engine. TextHandler prints one human-readable line per
event and JSONHandler one JSON object per line, for tools that follow a run.
*/
package progress
