// internal/bridge/bridge.go
package bridge

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// snapshotMsg is the wire form of one monitor snapshot.
type snapshotMsg struct {
	Start  uint16    `json:"start"`
	Values []uint16  `json:"values"`
	At     time.Time `json:"at"`
}

// Publisher mirrors monitor snapshots to an MQTT topic. It sits outside
// the data path: a snapshot that cannot be delivered is logged and
// dropped, never surfaced to whatever produced it.
type Publisher struct {
	client    mqtt.Client
	topic     string
	log       zerolog.Logger
	connected atomic.Bool
}

// New builds a publisher for broker (tcp://host:port). Connection upkeep
// is the client's job: auto-reconnect plus connect-retry, so a broker
// that is down at start is retried in the background.
func New(broker, topic string, logger zerolog.Logger) *Publisher {
	p := &Publisher{
		topic: topic,
		log:   logger.With().Str("component", "bridge").Logger(),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("modbus-workbench-" + uuid.NewString()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		p.connected.Store(true)
		p.log.Info().Str("broker", broker).Msg("mqtt connected")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		p.connected.Store(false)
		p.log.Warn().Err(err).Msg("mqtt connection lost")
	}
	p.client = mqtt.NewClient(opts)
	return p
}

// Connect starts the client. A broker that is merely unreachable is not an
// error here; connect-retry keeps working on it in the background.
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return fmt.Errorf("bridge: connect: %w", token.Error())
	}
	return nil
}

// Close drops the broker connection.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// Handle publishes one snapshot at QoS 0. Meant to be subscribed to the
// monitor; while the broker is away snapshots are dropped silently rather
// than queued.
func (p *Publisher) Handle(start uint16, values []uint16) {
	if !p.connected.Load() {
		return
	}
	payload, err := encodeSnapshot(start, values, time.Now().UTC())
	if err != nil {
		p.log.Warn().Err(err).Msg("snapshot encode failed")
		return
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	if token.WaitTimeout(time.Second) && token.Error() != nil {
		p.log.Warn().Err(token.Error()).Str("topic", p.topic).Msg("snapshot publish failed")
	}
}

func encodeSnapshot(start uint16, values []uint16, at time.Time) ([]byte, error) {
	return json.Marshal(snapshotMsg{Start: start, Values: values, At: at})
}
