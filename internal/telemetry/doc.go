// Package telemetry implements the bridge's measurement pipeline.
//
// The pipeline turns raw serial frames into broker publications in four
// stages, each independently testable:
//
//   - ParseFrame extracts the current value from the sensor's fixed
//     line format.
//   - Multiplexer merges the serial measurement with the synthetic
//     channels into one cycle of readings, all sharing a timestamp.
//   - Publisher renders each reading onto its topic with the fixed JSON
//     payload and hands it to the session manager, dropping (never
//     queueing) when no session is established.
//   - Scheduler drives the whole loop on a fixed interval with bounded,
//     interruptible cycles.
//
// The package depends on the session manager only through the narrow
// SessionPublisher interface, so every stage runs under test without a
// broker.
package telemetry
