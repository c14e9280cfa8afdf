// Package alert publishes fall scores and confirmed fall events over MQTT.
package alert

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/fall_detector/internal/detector"
	"github.com/relabs-tech/fall_detector/internal/gps"
	"github.com/relabs-tech/fall_detector/internal/imu"
)

// FallAlert is the wire form of a confirmed fall: the event plus the last
// GPS fix when one is available.
type FallAlert struct {
	detector.Event
	GPS *gps.Fix `json:"gps,omitempty"`
}

// Publisher owns the MQTT connection of the detector daemon.
type Publisher struct {
	client     mqtt.Client
	topicScore string
	topicFall  string
	topicIMU   string
}

// NewPublisher connects to the broker.
func NewPublisher(broker, clientID, topicScore, topicFall, topicIMU string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect: %w", token.Error())
	}

	return &Publisher{
		client:     client,
		topicScore: topicScore,
		topicFall:  topicFall,
		topicIMU:   topicIMU,
	}, nil
}

// PublishScore publishes one per-sample scoring result (retained, QoS 0).
func (p *Publisher) PublishScore(r detector.Result) error {
	return p.publish(p.topicScore, r)
}

// PublishFall publishes a confirmed fall alert (retained, QoS 1).
func (p *Publisher) PublishFall(a FallAlert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal fall alert: %w", err)
	}
	if token := p.client.Publish(p.topicFall, 1, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", p.topicFall, token.Error())
	}
	return nil
}

// PublishSample publishes the raw scaled sample for debugging consoles.
func (p *Publisher) PublishSample(s imu.Sample) error {
	return p.publish(p.topicIMU, s)
}

func (p *Publisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal for %s: %w", topic, err)
	}
	if token := p.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
