/*
Package domain contains the core domain models of the spindle workflow engine.

It defines node type metadata, node configuration, the error taxonomy of a node
invocation, and the records persisted for runs, datasets and vector indices.
This package is kept pure and free of I/O, following Hexagonal Architecture
principles.

# Key Entities

  - NodeTypeDescriptor: static per-type metadata (name, category, visual tag, shapes).
  - NodeConfig: configuration owned by one node instance.
  - VisualTag: acronym and hex color shown for a node type.
  - NodeError: a failed invocation, classified by ErrInputValidation, ErrLogic,
    ErrOutputValidation or ErrDependency.
  - RunRecord / TaskRecord: persisted status of a workflow run and its nodes.
*/
package domain
