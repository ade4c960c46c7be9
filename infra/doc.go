// Package infra contains technical adapters such as the OSRM routing
// client, file ingestion, MQTT publishing and metrics exporters. These
// packages should depend only on the interfaces defined in the core
// packages.
package infra
