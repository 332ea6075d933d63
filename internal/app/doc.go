// Package app provides the application service layer.
//
// Orchestrates use cases: scoring, single and batch ingestion, aggregate
// queries, deletion and export. Sits between HTTP handlers and domain
// repositories. Depends on domain interfaces, not concrete implementations.
package app
