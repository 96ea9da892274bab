package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	stateQoS       = 1
)

var (
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
)

// MQTTPublisher publishes barrier state as retained messages on
// <prefix>/barreras/<id>/estado.
type MQTTPublisher struct {
	prefix  string
	lg      *zap.SugaredLogger
	publish func(topic string, payload []byte) error
	close   func()
}

// ConnectMQTT dials broker (e.g. "tcp://localhost:1883") with auto-reconnect.
func ConnectMQTT(broker, clientID, prefix string, lg *zap.SugaredLogger) (*MQTTPublisher, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		lg.Warnw("mqtt connection lost", "error", err)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	publish := func(topic string, payload []byte) error {
		t := client.Publish(topic, stateQoS, true, payload)
		if !t.WaitTimeout(publishTimeout) {
			return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, publishTimeout)
		}
		if err := t.Error(); err != nil {
			return fmt.Errorf("%w: %w", ErrPublishFailed, err)
		}
		return nil
	}
	return newMQTTPublisher(prefix, publish, func() { client.Disconnect(1000) }, lg), nil
}

func newMQTTPublisher(prefix string, publish func(string, []byte) error, closeFn func(), lg *zap.SugaredLogger) *MQTTPublisher {
	return &MQTTPublisher{prefix: prefix, lg: lg, publish: publish, close: closeFn}
}

func (p *MQTTPublisher) Topic(barrierID string) string {
	return p.prefix + "/barreras/" + barrierID + "/estado"
}

func (p *MQTTPublisher) BarrierChanged(_ context.Context, c BarrierChange) {
	payload, err := json.Marshal(c)
	if err != nil {
		p.lg.Errorw("encode barrier change", "barrier_id", c.BarrierID, "error", err)
		return
	}
	if err := p.publish(p.Topic(c.BarrierID), payload); err != nil {
		p.lg.Warnw("publish barrier change", "barrier_id", c.BarrierID, "event_id", c.EventID, "error", err)
	}
}

func (p *MQTTPublisher) Close() {
	if p.close != nil {
		p.close()
	}
}
