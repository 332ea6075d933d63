// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (analysis.go, aggregate.go, errors.go, etc.)
// with shared types and cross-cutting interfaces. Apart from record construction and the
// polarity thresholds it holds no implementation code, just contracts.
// Prevents circular imports by keeping interfaces on the consumer side.
package domain
