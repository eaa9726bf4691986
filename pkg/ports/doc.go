/*
Package ports defines the driven ports (interfaces) of the spindle engine.

These interfaces decouple node logic and the workflow executor from external
implementations, allowing them to work with various storage backends, vector
index services and model providers.

# Key Interfaces

  - IndexRegistry / IndexSession: per-invocation access to vector index metadata.
  - VectorSearcher: similarity search over a vector index.
  - Embedder / ChatCompleter: model provider access.
  - RunStore: persists run and task status so runs can be resumed.
  - DatasetStore: dataset metadata.
  - DistributedLocker: distributed locking for handling concurrent run access.
*/
package ports
