package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/powerpal/internal/config"
	"github.com/jgoulah/powerpal/pkg/models"
)

const (
	defaultTopicPrefix  = "powerpal"
	defaultEntityPrefix = "sensor.powerpal"
)

// Publisher pushes reports to Home Assistant, via MQTT and/or the HA HTTP API
type Publisher struct {
	client       mqtt.Client
	topicPrefix  string
	haConfig     config.HAConfig
	entityPrefix string
	httpClient   *http.Client
}

// New creates a new publisher (supports both MQTT and HA HTTP API)
func New(mqttCfg config.MQTTConfig, haCfg config.HAConfig) (*Publisher, error) {
	if !mqttCfg.Enabled && !haCfg.Enabled {
		return nil, fmt.Errorf("neither MQTT nor Home Assistant is enabled in config")
	}

	// Validate HA config if enabled
	if haCfg.Enabled {
		if haCfg.URL == "" {
			return nil, fmt.Errorf("Home Assistant URL is required when enabled")
		}
		if haCfg.Token == "" {
			return nil, fmt.Errorf("Home Assistant token is required when enabled")
		}
	}

	entityPrefix := haCfg.EntityPrefix
	if entityPrefix == "" {
		entityPrefix = defaultEntityPrefix
	}

	var client mqtt.Client
	var topicPrefix string

	if mqttCfg.Enabled {
		if mqttCfg.Broker == "" {
			return nil, fmt.Errorf("MQTT broker address is required when enabled")
		}

		// Set default topic prefix if not specified
		topicPrefix = mqttCfg.TopicPrefix
		if topicPrefix == "" {
			topicPrefix = defaultTopicPrefix
		}

		// Configure MQTT client options
		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
		opts.SetClientID("powerpal")
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectTimeout(10 * time.Second)

		if mqttCfg.Username != "" {
			opts.SetUsername(mqttCfg.Username)
		}
		if mqttCfg.Password != "" {
			opts.SetPassword(mqttCfg.Password)
		}

		// Create and connect client
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
		}
	}

	return &Publisher{
		client:       client,
		topicPrefix:  topicPrefix,
		haConfig:     haCfg,
		entityPrefix: entityPrefix,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Name identifies the channel
func (p *Publisher) Name() string {
	return "home_assistant"
}

// Send publishes every report value over the enabled transports
func (p *Publisher) Send(ctx context.Context, report models.Report) error {
	values := reportValues(report)

	if p.client != nil {
		if err := p.publishMQTT(report, values); err != nil {
			return err
		}
	}

	if p.haConfig.Enabled {
		for _, v := range values {
			if err := p.postState(ctx, v, report.GeneratedAt); err != nil {
				return fmt.Errorf("posting %s: %w", v.key, err)
			}
		}
	}

	return nil
}

type sensorValue struct {
	key   string
	value float64
	unit  string
}

func reportValues(report models.Report) []sensorValue {
	s := report.Summary.Rounded()
	return []sensorValue{
		{key: "balance", value: s.Balance, unit: "units"},
		{key: "average_usage", value: s.AverageUsage, unit: "units/day"},
		{key: "days_left", value: s.DaysLeft, unit: "d"},
		{key: "forecast", value: models.Round(report.Forecast, 2), unit: "units"},
	}
}

// publishMQTT writes one retained topic per value plus a JSON state topic
func (p *Publisher) publishMQTT(report models.Report, values []sensorValue) error {
	for _, v := range values {
		topic := fmt.Sprintf("%s/%s", p.topicPrefix, v.key)
		token := p.client.Publish(topic, 1, true, fmt.Sprintf("%.2f", v.value))
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("publishing %s: %w", topic, token.Error())
		}
	}

	state, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	topic := fmt.Sprintf("%s/state", p.topicPrefix)
	token := p.client.Publish(topic, 1, true, state)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publishing %s: %w", topic, token.Error())
	}
	return nil
}

// HAState matches the Home Assistant POST /api/states/<entity_id> body
type HAState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

func (p *Publisher) postState(ctx context.Context, v sensorValue, at time.Time) error {
	entityID := fmt.Sprintf("%s_%s", p.entityPrefix, v.key)
	apiURL := fmt.Sprintf("%s/api/states/%s", p.haConfig.URL, entityID)

	payload := HAState{
		State: fmt.Sprintf("%.2f", v.value),
		Attributes: map[string]any{
			"unit_of_measurement": v.unit,
			"friendly_name":       "PowerPal " + v.key,
			"generated_at":        at.Format(time.RFC3339),
		},
	}

	// Marshal to JSON
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	// Create HTTP request
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	// Send request
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// Read error response body for debugging
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
