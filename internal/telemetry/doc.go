// Package telemetry wires OpenTelemetry metrics and spans for the pipeline
// stages. Without configured providers everything is a noop.
package telemetry
