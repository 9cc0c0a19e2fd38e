// Package mqtt owns the broker session for the corriente bridge.
//
// This package manages:
//   - An asynchronous TLS-verified connection to the broker
//   - Non-blocking tracked publishes with QoS guarantees
//   - A typed session event stream (connect, disconnect, ack, errors)
//   - Automatic reconnection, delegated to the transport's backoff
//
// # Architecture
//
// Exactly one session exists per Client and the Client is its only writer.
// The telemetry publisher holds a narrow capability reference (publish +
// connection query) and never touches connection state. Transport callbacks
// run on paho's network goroutines; everything they share with the main
// loop goes through a mutex-guarded state cell or the event channel.
//
//	serial sensor → telemetry pipeline → mqtt session → broker (TLS)
//
// # Delivery Semantics
//
//   - Publishes are accepted only while Connected; otherwise the caller
//     gets ErrNotConnected immediately and nothing is queued.
//   - Every accepted publish is tracked until the broker acknowledges it;
//     the resolution arrives on the event stream with the tracking ID.
//   - Pending publications live in memory only: a restart loses them
//     (at-most-once durability across reboots, at-least-once on the wire).
//
// # Security Considerations
//
//   - The broker's identity is verified against a configured trust anchor
//     (CA certificate); there is no skip-verify option
//   - Credentials are validated by the broker during CONNECT
//   - Payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT) // returns immediately
//	if err != nil {
//	    log.Fatal(err) // configuration-class failure only
//	}
//	defer client.Close()
//
//	id, err := client.Publish(mqtt.Topics{}.Current("Cocina"), payload, 1)
//
//	for ev := range client.Events() {
//	    // KindConnected, KindDisconnected, KindAcknowledged, ...
//	}
package mqtt
