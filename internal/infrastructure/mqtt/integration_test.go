//go:build integration

package mqtt

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/calloway/automata-core/internal/infrastructure/config"
)

// Integration tests for broker-backed behaviour. They require a running
// MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func brokerConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()
	client, err := Connect(brokerConfig(clientID))
	if err != nil {
		t.Skipf("broker not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestIntegration_SubscriptionTracking(t *testing.T) {
	client := connectOrSkip(t, "automata-int-subs")

	topics := []string{"automata/int/a", "automata/int/b", "automata/int/c"}
	handler := func(string, []byte) error { return nil }
	for _, topic := range topics {
		if err := client.Subscribe(topic, 1, handler); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", topic, err)
		}
	}

	if got := client.SubscriptionCount(); got != len(topics) {
		t.Errorf("SubscriptionCount() = %d, want %d", got, len(topics))
	}

	if err := client.Unsubscribe(topics[0]); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if got := client.SubscriptionCount(); got != len(topics)-1 {
		t.Errorf("SubscriptionCount() after unsubscribe = %d, want %d", got, len(topics)-1)
	}
	if client.HasSubscription(topics[0]) {
		t.Errorf("HasSubscription(%s) = true after unsubscribe", topics[0])
	}
}

func TestIntegration_MessageRoundtrip(t *testing.T) {
	pub := connectOrSkip(t, "automata-int-pub")
	sub := connectOrSkip(t, "automata-int-sub")

	topic := "automata/int/roundtrip"
	expected := "test-message-12345"

	received := make(chan string, 1)
	var once sync.Once
	err := sub.Subscribe(topic, 1, func(_ string, p []byte) error {
		once.Do(func() { received <- string(p) })
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := pub.Publish(topic, []byte(expected), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-received:
		if msg != expected {
			t.Errorf("received %q, want %q", msg, expected)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for message")
	}
}

func TestIntegration_WildcardDelivery(t *testing.T) {
	pub := connectOrSkip(t, "automata-int-wild-pub")
	sub := connectOrSkip(t, "automata-int-wild-sub")

	var count atomic.Int32
	if err := sub.Subscribe("automata/int/wild/#", 1, func(string, []byte) error {
		count.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	for _, topic := range []string{"automata/int/wild/a", "automata/int/wild/b/c"} {
		if err := pub.Publish(topic, []byte("x"), 1, false); err != nil {
			t.Fatalf("Publish(%s) error = %v", topic, err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for count.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if count.Load() != 2 {
		t.Errorf("received %d messages, want 2", count.Load())
	}
}

func TestIntegration_CallbacksAndLogger(t *testing.T) {
	client := connectOrSkip(t, "automata-int-callbacks")

	var connects atomic.Int32
	client.SetOnConnect(func() { connects.Add(1) })
	client.SetOnDisconnect(func(error) {})
	client.SetOnConnect(nil)
	client.SetOnDisconnect(nil)

	logger := &captureLogger{}
	client.SetLogger(logger)
	if client.getLogger() == nil {
		t.Error("getLogger() = nil after SetLogger()")
	}
	client.SetLogger(nil)
	if client.getLogger() != nil {
		t.Error("getLogger() should be nil after SetLogger(nil)")
	}
}

// captureLogger implements Logger for integration tests.
type captureLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *captureLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *captureLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
