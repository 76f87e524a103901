package mqtt

import "fmt"

// maxPayloadSize caps publish payloads at 1 MB, in line with typical
// broker limits.
const maxPayloadSize = 1 << 20

// maxQoS is the highest MQTT QoS level.
const maxQoS = 2

// Publish sends a message to a topic.
//
// QoS 0 is fire-and-forget, 1 guarantees delivery (possibly duplicated)
// and 2 guarantees exactly-once. Retained messages are redelivered to
// new subscribers; use them for state topics only, never for commands
// or events.
//
// Example:
//
//	err := client.Publish(mqtt.Topics{}.Command("fan-01"), []byte(`{"on":true}`), 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrBadTopic
	}
	if qos > maxQoS {
		return ErrBadQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload %d bytes exceeds %d", ErrPublish, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.paho.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(opTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublish, opTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

// Subscribe registers a handler for a topic pattern.
//
// Patterns may use MQTT wildcards: + matches one level
// ("automata/sensor/+"), # matches the rest ("automata/#"). The
// subscription is tracked and restored automatically after reconnects.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrBadTopic
	}
	if qos > maxQoS {
		return ErrBadQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler", ErrSubscription)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()

	token := c.paho.Subscribe(topic, qos, c.wrapHandler(handler))
	if !token.WaitTimeout(opTimeout) {
		c.dropSubscription(topic)
		return fmt.Errorf("%w: timeout after %v", ErrSubscription, opTimeout)
	}
	if err := token.Error(); err != nil {
		c.dropSubscription(topic)
		return fmt.Errorf("%w: %w", ErrSubscription, err)
	}
	return nil
}

// Unsubscribe stops delivery for a topic pattern. The pattern must
// match a prior Subscribe exactly.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrBadTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.dropSubscription(topic)

	token := c.paho.Unsubscribe(topic)
	if !token.WaitTimeout(opTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscription, opTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscription, err)
	}
	return nil
}

func (c *Client) dropSubscription(topic string) {
	c.mu.Lock()
	delete(c.subs, topic)
	c.mu.Unlock()
}

// SubscriptionCount returns the number of tracked subscriptions.
func (c *Client) SubscriptionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// HasSubscription reports whether the exact topic pattern is tracked.
func (c *Client) HasSubscription(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subs[topic]
	return ok
}
