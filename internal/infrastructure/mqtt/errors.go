package mqtt

import "errors"

// Errors returned by the MQTT client. Check with errors.Is().
var (
	// ErrNotConnected: the operation needs a live broker connection.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrConnect: the initial broker connection did not come up.
	ErrConnect = errors.New("mqtt: connect failed")

	// ErrPublish: a publish was rejected, oversized or timed out.
	ErrPublish = errors.New("mqtt: publish failed")

	// ErrSubscription: a subscribe or unsubscribe was rejected or timed
	// out.
	ErrSubscription = errors.New("mqtt: subscription failed")

	// ErrBadTopic: empty topic string.
	ErrBadTopic = errors.New("mqtt: empty topic")

	// ErrBadQoS: QoS outside 0..2.
	ErrBadQoS = errors.New("mqtt: qos must be 0, 1 or 2")
)
