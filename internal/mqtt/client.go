// client.go: Package mqtt provides an abstraction for MQTT client
// functionality. Publication of detections to a broker is optional and
// best effort, a broker outage never affects ingestion.
package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/errors"
)

const (
	connectTimeout = 30 * time.Second
	publishTimeout = 10 * time.Second
)

// Client is the interface the notifier publishes through.
type Client interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic, payload string) error
	IsConnected() bool
	Disconnect()
}

// client implements the Client interface.
type client struct {
	settings       conf.MQTTSettings
	clientID       string
	internalClient mqtt.Client
	mu             sync.Mutex
}

// NewClient creates a new MQTT client with the provided configuration.
func NewClient(settings *conf.Settings) Client {
	return &client{
		settings: settings.MQTT,
		clientID: settings.Main.Name,
	}
}

// Connect attempts to establish a connection to the MQTT broker.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.settings.Broker)
	opts.SetClientID(c.clientID)
	opts.SetUsername(c.settings.Username)
	opts.SetPassword(c.settings.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	c.internalClient = mqtt.NewClient(opts)

	token := c.internalClient.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.Newf("connection to %s timed out", c.settings.Broker).
			Component("mqtt").
			Category(errors.CategoryMQTT).
			Build()
	}
	if err := token.Error(); err != nil {
		return errors.New(fmt.Errorf("connecting to %s: %w", c.settings.Broker, err)).
			Component("mqtt").
			Category(errors.CategoryMQTT).
			Build()
	}

	return nil
}

// Publish sends a message to the specified topic on the MQTT broker.
func (c *client) Publish(ctx context.Context, topic, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.internalClient == nil || !c.internalClient.IsConnected() {
		return errors.Newf("not connected to broker").
			Component("mqtt").
			Category(errors.CategoryMQTT).
			Build()
	}

	token := c.internalClient.Publish(topic, 0, c.settings.Retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Newf("publish to %s timed out", topic).
			Component("mqtt").
			Category(errors.CategoryMQTT).
			Context("topic", topic).
			Build()
	}
	return token.Error()
}

// IsConnected reports whether the client currently holds a connection.
func (c *client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the broker connection.
func (c *client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.internalClient != nil {
		c.internalClient.Disconnect(250)
	}
}
