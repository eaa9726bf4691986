// Package node implements the execution wrapper shared by every node type.
//
// A node instance owns its configuration and lazily binds an input and an
// output shape. Call validates the raw input, runs the node Logic, validates
// the returned value against the output shape and caches both values.
//
// Failures are reported as *domain.NodeError, classified by one of
// domain.ErrInputValidation, domain.ErrLogic, domain.ErrOutputValidation or
// domain.ErrDependency.
package node
