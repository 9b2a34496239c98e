// Package notifications delivers migration events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Per-event toggles
// let users silence queue or completion notices without disabling the topic.
//
// Callers depend only on the Service interface.
package notifications
