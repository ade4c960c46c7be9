// Package mqtt publishes solved siting results to an MQTT broker so
// downstream dashboards can consume them without polling the output files.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/ekinyavuz/evplan/core/kpi"
	"github.com/ekinyavuz/evplan/core/model"
	"github.com/ekinyavuz/evplan/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT publisher.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
	Username string `json:"username"`
	Password string `json:"password"`
	QoS      byte   `json:"qos"`
}

// SetDefaults fills in the fields that may be omitted from the config file.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "evplan"
	}
	if c.Topic == "" {
		c.Topic = "evplan/solutions"
	}
}

// Publisher pushes solved scenarios to a broker topic.
type Publisher interface {
	PublishSolution(sol *model.Solution, kpis kpi.Summary) error
	Close()
}

// pahoClient is the slice of the Paho API the publisher uses.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoPublisher implements Publisher using Eclipse Paho.
type PahoPublisher struct {
	cli   pahoClient
	topic string
	qos   byte
	log   logger.Logger
}

// NewPahoPublisher connects to the broker described by cfg.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("MQTT connection lost: %v", err)
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &PahoPublisher{cli: c, topic: cfg.Topic, qos: cfg.QoS, log: log}, nil
}

type solutionMessage struct {
	RunID     string                `json:"run_id"`
	Method    string                `json:"method"`
	Timestamp time.Time             `json:"timestamp"`
	Objective float64               `json:"objective_keur"`
	Stations  []model.OpenedStation `json:"stations"`
	KPIs      kpi.Summary           `json:"kpis"`
	Assigned  map[string]int        `json:"assignment"`
}

// PublishSolution pushes the solution as a JSON payload on the configured
// topic.
func (p *PahoPublisher) PublishSolution(sol *model.Solution, kpis kpi.Summary) error {
	msg := solutionMessage{
		RunID:     sol.RunID,
		Method:    sol.Method,
		Timestamp: time.Now().UTC(),
		Objective: sol.Objective,
		Stations:  sol.Stations,
		KPIs:      kpis,
		Assigned:  sol.Assignment,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal solution: %w", err)
	}
	token := p.cli.Publish(p.topic, p.qos, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish solution: %w", token.Error())
	}
	p.log.Infof("published solution %s (%d stations) on %s", sol.RunID, len(sol.Stations), p.topic)
	return nil
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() {
	if p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}

// NopPublisher discards solutions. Used when MQTT output is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishSolution(*model.Solution, kpi.Summary) error { return nil }
func (NopPublisher) Close()                                             {}
