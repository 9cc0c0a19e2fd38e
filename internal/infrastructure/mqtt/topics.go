package mqtt

import "fmt"

// TopicNamespace is the root of every topic the bridge publishes.
//
// Topic scheme: casa/{channel}/corriente, a two-level hierarchy with the
// channel name as the middle segment and the measurement kind as the leaf.
const TopicNamespace = "casa"

// Topics provides builders for bridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.Current("Cocina")
//	// Returns: "casa/Cocina/corriente"
type Topics struct{}

// Current returns the topic for current (amperage) readings on a channel.
//
// Example: casa/Cocina/corriente
func (Topics) Current(channel string) string {
	return fmt.Sprintf("%s/%s/corriente", TopicNamespace, channel)
}

// AllCurrents returns a pattern matching current readings on every channel.
//
// Pattern: casa/+/corriente
func (Topics) AllCurrents() string {
	return fmt.Sprintf("%s/+/corriente", TopicNamespace)
}

// AllTopics returns a pattern matching the whole bridge namespace.
// Use with caution - this receives ALL traffic.
//
// Pattern: casa/#
func (Topics) AllTopics() string {
	return fmt.Sprintf("%s/#", TopicNamespace)
}
