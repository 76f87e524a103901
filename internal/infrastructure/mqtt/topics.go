package mqtt

import "fmt"

// Topic prefixes for the Automata MQTT namespace.
//
// Sensor readings flow in under automata/sensor/{id}; engine events flow
// out under automata/event/...; action commands to actuators go out
// under automata/command/{target}.
const (
	// TopicPrefix is the base for all Automata topics.
	TopicPrefix = "automata"

	// TopicPrefixSensor is the base for inbound sensor readings.
	TopicPrefixSensor = "automata/sensor"

	// TopicPrefixEvent is the base for outbound engine events.
	TopicPrefixEvent = "automata/event"

	// TopicPrefixCommand is the base for outbound actuator commands.
	TopicPrefixCommand = "automata/command"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "automata/system"
)

// Topics provides builders for Automata MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	readings := topics.AllSensorReadings() // "automata/sensor/#"
type Topics struct{}

// SensorReading returns the topic a sensor publishes its readings on.
//
// Example: automata/sensor/greenhouse/temp
func (Topics) SensorReading(sensorID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixSensor, sensorID)
}

// AllSensorReadings returns a pattern matching every sensor reading.
//
// Pattern: automata/sensor/#
func (Topics) AllSensorReadings() string {
	return TopicPrefixSensor + "/#"
}

// RuleFired returns the topic for rule-fire events.
//
// Example: automata/event/rule/overheat-guard/fired
func (Topics) RuleFired(ruleID string) string {
	return fmt.Sprintf("%s/rule/%s/fired", TopicPrefixEvent, ruleID)
}

// TreeStatus returns the topic for behavior-tree status events.
//
// Example: automata/event/tree/patrol
func (Topics) TreeStatus(name string) string {
	return fmt.Sprintf("%s/tree/%s", TopicPrefixEvent, name)
}

// TaskResult returns the topic for scheduler task outcomes.
//
// Example: automata/event/task/nightly-report
func (Topics) TaskResult(taskID string) string {
	return fmt.Sprintf("%s/task/%s", TopicPrefixEvent, taskID)
}

// AllEvents returns a pattern matching all engine events.
//
// Pattern: automata/event/#
func (Topics) AllEvents() string {
	return TopicPrefixEvent + "/#"
}

// Command returns the topic for commands to an actuator.
//
// Example: automata/command/fan-01
func (Topics) Command(targetID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixCommand, targetID)
}

// AllCommands returns a pattern matching all actuator commands.
//
// Pattern: automata/command/#
func (Topics) AllCommands() string {
	return TopicPrefixCommand + "/#"
}

// SystemStatus returns the system status topic (also used for the LWT).
//
// Example: automata/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: automata/system/shutdown
func (Topics) SystemShutdown() string {
	return TopicPrefixSystem + "/shutdown"
}

// SensorIDFromTopic extracts the sensor identifier from a reading topic.
// Nested identifiers keep their slashes: automata/sensor/greenhouse/temp
// yields "greenhouse/temp". Returns "" for foreign topics.
func SensorIDFromTopic(topic string) string {
	prefix := TopicPrefixSensor + "/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return ""
	}
	return topic[len(prefix):]
}
