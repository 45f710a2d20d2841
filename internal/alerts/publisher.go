package alerts

import (
	"context"
	"encoding/json"
	"time"

	domainAlert "satdesk-manager/internal/domain/alert"
	"satdesk-manager/pkg/mqtt"
)

// MQTTPublisher pushes each alert scan to a broker topic so notification
// collaborators (email, dashboards) can subscribe without polling the API.
type MQTTPublisher struct {
	client *mqtt.Client
	topic  string
}

func NewMQTTPublisher(client *mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic}
}

type alertBatch struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Alerts      []domainAlert.Alert `json:"alerts"`
}

func (p *MQTTPublisher) PublishAlerts(_ context.Context, alerts []domainAlert.Alert) error {
	payload, err := json.Marshal(alertBatch{
		GeneratedAt: time.Now(),
		Alerts:      alerts,
	})
	if err != nil {
		return err
	}

	// Retained so a subscriber connecting between scans sees the latest set.
	return p.client.Publish(p.topic, 1, true, payload)
}
