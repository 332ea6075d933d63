// Package nats publishes analysis events to NATS subjects behind a circuit breaker.
package nats
