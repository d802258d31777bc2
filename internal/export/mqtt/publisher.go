// internal/export/mqtt/publisher.go
package mqtt

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/protocol"
)

type Config struct {
	Broker         string
	Topic          string
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout time.Duration
}

// Telemetry is the JSON payload published per snapshot.
type Telemetry struct {
	Device          string    `json:"device"`
	CoolantTempC    float64   `json:"coolant_temp_c"`
	FanRPM          uint16    `json:"fan_rpm"`
	PumpRPM         uint16    `json:"pump_rpm"`
	FanDutyPct      uint8     `json:"fan_duty_pct"`
	PumpDutyPct     uint8     `json:"pump_duty_pct"`
	FirmwareVersion int       `json:"firmware_version"`
	Timestamp       time.Time `json:"timestamp"`
}

// FromSnapshot converts a decoded snapshot into a telemetry payload.
func FromSnapshot(device string, snap protocol.Snapshot, firmwareVersion int) Telemetry {
	return Telemetry{
		Device:          device,
		CoolantTempC:    float64(snap.CoolantTempMilli) / 1000,
		FanRPM:          snap.FanRPM,
		PumpRPM:         snap.PumpRPM,
		FanDutyPct:      snap.FanDuty,
		PumpDutyPct:     snap.PumpDuty,
		FirmwareVersion: firmwareVersion,
		Timestamp:       time.Now().UTC(),
	}
}

// broker is the slice of the paho client the publisher uses.
type broker interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Publisher pushes telemetry payloads to one broker topic.
type Publisher struct {
	cfg Config
	cli broker
	log *logrus.Entry

	disconnect func()
}

func generateClientID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return "waterforced-" + hex.EncodeToString(b)
}

// NewPublisher connects to the broker and returns a ready publisher.
func NewPublisher(cfg Config, log *logrus.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("export mqtt: broker required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = generateClientID()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	entry := log.WithField("broker", cfg.Broker)

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetAutoReconnect(true)
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		entry.WithError(err).Warn("mqtt connection lost")
	})

	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("export mqtt: connect %s: %w", cfg.Broker, token.Error())
	}

	return &Publisher{
		cfg: cfg,
		cli: cli,
		log: entry,
		disconnect: func() {
			cli.Disconnect(1000)
		},
	}, nil
}

// Publish sends one telemetry payload and waits for broker acknowledgement.
func (p *Publisher) Publish(t Telemetry) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("export mqtt: marshal: %w", err)
	}

	token := p.cli.Publish(p.cfg.Topic, p.cfg.QoS, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("export mqtt: publish %s: %w", p.cfg.Topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.disconnect != nil {
		p.disconnect()
	}
}
