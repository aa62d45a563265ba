package app

import (
	"io"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
)

// Publisher sends one payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

type mqttPublisher struct {
	client mqtt.Client
}

// NewMQTTPublisher publishes retained QoS 0 messages and waits for each.
func NewMQTTPublisher(c mqtt.Client) Publisher {
	return &mqttPublisher{client: c}
}

func (m *mqttPublisher) Publish(topic string, payload []byte) error {
	token := m.client.Publish(topic, 0, true, payload)
	token.Wait()
	return token.Error()
}

// ConnectMQTT connects a client and waits for the broker to accept it.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "mqtt: connect %s", broker)
	}
	return client, nil
}

// OpenSerial opens a raw 8N1 port.
func OpenSerial(port string, baud int) (io.ReadWriteCloser, error) {
	rwc, err := serial.Open(serial.OpenOptions{
		PortName:        port,
		BaudRate:        uint(baud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "serial: open %s", port)
	}
	return rwc, nil
}
