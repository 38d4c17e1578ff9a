// Package mqtt binds a bridge.Bridge to an MQTT broker via
// eclipse/paho.mqtt.golang: it subscribes to every topic the bridge
// reports, dispatches inbound envelopes, and publishes both request
// responses and telemetry ticks back onto the broker.
package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/dabcore/dab-bridge/dabjson"
)

// Dispatcher is the bridge surface this binding drives requests through.
type Dispatcher interface {
	Dispatch(envelope *dabjson.Value) *dabjson.Value
	Topics() []string
}

// Transport is a transport.Binding backed by a single paho client.
type Transport struct {
	brokerURL string
	clientID  string
	qos       byte
	logger    *slog.Logger

	dispatcher Dispatcher

	mu            sync.Mutex
	client        paho.Client
	subscribed    map[string]struct{}
	resubInterval time.Duration
}

// New constructs an unconnected Transport. Call Start to connect and
// subscribe, and SetPublishCallback (via Publish) to wire adapter/bridge
// telemetry through the same client.
func New(brokerURL, clientID string, dispatcher Dispatcher, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		brokerURL:     brokerURL,
		clientID:      clientID,
		qos:           0, // at-most-once: no transport-level reliability guarantee is promised
		logger:        logger,
		dispatcher:    dispatcher,
		subscribed:    map[string]struct{}{},
		resubInterval: 0,
	}
}

// Start connects to the broker and subscribes to every topic the dispatcher
// currently reports. Call Resubscribe after a dynamic bridge.AddDevice so
// the new device's topics get subscribed too; the bridge's dispatch
// registry isn't observed automatically once Start returns.
func (t *Transport) Start() error {
	opts := paho.NewClientOptions().
		AddBroker(t.brokerURL).
		SetClientID(t.clientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(c paho.Client) {
			t.logger.Info("connected to mqtt broker", "broker", t.brokerURL)
			if err := t.Resubscribe(); err != nil {
				t.logger.Error("failed to subscribe after connect", "error", err)
			}
		}).
		SetConnectionLostHandler(func(c paho.Client, err error) {
			t.logger.Warn("lost mqtt connection", "error", err)
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		if token.Error() != nil {
			return fmt.Errorf("mqtt: connect: %w", token.Error())
		}
		return fmt.Errorf("mqtt: connect timed out")
	}

	t.mu.Lock()
	t.client = client
	t.mu.Unlock()

	return t.Resubscribe()
}

// Resubscribe diffs the dispatcher's current topic list against what this
// transport has already subscribed to and subscribes any newcomers, so
// adding a device at runtime makes its topics reachable without a full
// reconnect.
func (t *Transport) Resubscribe() error {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil {
		return fmt.Errorf("mqtt: not connected")
	}

	for _, topic := range t.dispatcher.Topics() {
		t.mu.Lock()
		_, already := t.subscribed[topic]
		t.mu.Unlock()
		if already {
			continue
		}

		tp := topic // capture for the handler closure
		token := client.Subscribe(tp, t.qos, func(c paho.Client, m paho.Message) {
			t.handleMessage(tp, m.Payload())
		})
		if token.WaitTimeout(5*time.Second); token.Error() != nil {
			return fmt.Errorf("mqtt: subscribe %q: %w", tp, token.Error())
		}

		t.mu.Lock()
		t.subscribed[tp] = struct{}{}
		t.mu.Unlock()
	}
	return nil
}

func (t *Transport) handleMessage(topic string, body []byte) {
	envelope, err := dabjson.Parse(body)
	if err != nil {
		t.logger.Warn("dropping malformed mqtt payload", "topic", topic, "error", err)
		return
	}
	if !envelope.Has("topic") {
		envelope.Set("topic", dabjson.NewString(topic))
	}

	rsp := t.dispatcher.Dispatch(envelope)
	t.Publish(responseTopic(topic), rsp)
}

// Publish serializes payload and publishes it on topic. It also serves as
// the telemetry.PublishFunc wired into the bridge/adapters via
// SetPublishCallback.
func (t *Transport) Publish(topic string, payload *dabjson.Value) {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil {
		return
	}
	body := dabjson.Serialize(payload)
	token := client.Publish(topic, t.qos, false, body) // retained=false: telemetry must never replay to new subscribers
	go func() {
		if token.WaitTimeout(5*time.Second); token.Error() != nil {
			t.logger.Warn("mqtt publish failed", "topic", topic, "error", token.Error())
		}
	}()
}

// responseTopic derives the reply channel for a request topic. Callers that
// already know their own reply channel (most MQTT DAB clients subscribe to
// the request topic itself and expect the response there) can ignore this
// and republish as they see fit; this default keeps responses off the
// request topic so a publishing client doesn't receive its own request
// echoed back as a response.
func responseTopic(topic string) string {
	return topic + "/_response"
}

// Shutdown disconnects from the broker.
func (t *Transport) Shutdown() error {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client != nil {
		client.Disconnect(250)
	}
	return nil
}
