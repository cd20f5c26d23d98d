// Package broker publishes live snapshots and alerts over MQTT and lets the
// ingestor subscribe to them.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/onction/power-dashboard/internal/domain"
)

const (
	SnapshotsTopic = "snapshots"
	AlertsTopic    = "alerts"

	publishQoS  = 1
	publishWait = 5 * time.Second
	connectWait = 10 * time.Second
)

// AlertBatch is the payload published on the alerts topic.
type AlertBatch struct {
	SnapshotTime domain.Timestamp `json:"snapshot_time"`
	Alerts       []domain.Alert   `json:"alerts"`
}

type Client struct {
	mqtt   mqtt.Client
	prefix string
}

// Connect dials the broker. The first connection must succeed within
// connectWait; later drops are retried by the client.
func Connect(broker, clientID, prefix string) (*Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(connectWait).
		SetAutoReconnect(true)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectWait) {
		c.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect to %s: timed out after %s", broker, connectWait)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return New(c, prefix), nil
}

// New wraps an already configured client.
func New(c mqtt.Client, prefix string) *Client {
	return &Client{mqtt: c, prefix: prefix}
}

// Topic joins the prefix and a topic name.
func Topic(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// ArchiveSnapshot publishes a live snapshot, retained so late subscribers
// see the latest one.
func (c *Client) ArchiveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.publish(ctx, Topic(c.prefix, SnapshotsTopic), true, payload)
}

// PublishAlerts publishes newly raised alerts.
func (c *Client) PublishAlerts(ctx context.Context, snapshotTime time.Time, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	payload, err := json.Marshal(AlertBatch{SnapshotTime: domain.NewTimestamp(snapshotTime), Alerts: alerts})
	if err != nil {
		return fmt.Errorf("encode alerts: %w", err)
	}
	return c.publish(ctx, Topic(c.prefix, AlertsTopic), false, payload)
}

func (c *Client) publish(ctx context.Context, topic string, retained bool, payload []byte) error {
	token := c.mqtt.Publish(topic, publishQoS, retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishWait):
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// SubscribeSnapshots calls handle for every snapshot published under the prefix.
func (c *Client) SubscribeSnapshots(handle func(topic string, payload []byte)) error {
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		handle(msg.Topic(), msg.Payload())
	}
	topic := Topic(c.prefix, SnapshotsTopic)
	if token := c.mqtt.Subscribe(topic, publishQoS, handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects, allowing in-flight work 250ms to finish.
func (c *Client) Close() {
	c.mqtt.Disconnect(250)
}
