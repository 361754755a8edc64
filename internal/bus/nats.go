package bus

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects published by the monitor.
const (
	SubjectAlertRaised   = "alert.raised"
	SubjectAlertResolved = "alert.resolved"
)

type Publisher struct {
	Conn *nats.Conn
}

// NewPublisher connects with unlimited reconnects so a NATS restart does not
// silence the alert feed.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("turbine-monitor"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, err
	}
	return &Publisher{Conn: conn}, nil
}

func (p *Publisher) Close() {
	if p.Conn != nil {
		p.Conn.Drain()
		p.Conn.Close()
	}
}

func (p *Publisher) Publish(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Conn.Publish(subject, data)
}
