// Package infra holds the adapters behind the core interfaces: the SQLite
// schedule store, the MQTT notifier, metrics sinks, Sentry monitoring and
// the zerolog logger. Core packages never import infra.
package infra
