package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/powerpal/internal/config"
	"github.com/jgoulah/powerpal/pkg/models"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(config.MQTTConfig{}, config.HAConfig{})
	assert.ErrorContains(t, err, "neither")

	_, err = New(config.MQTTConfig{}, config.HAConfig{Enabled: true, Token: "t"})
	assert.ErrorContains(t, err, "URL is required")

	_, err = New(config.MQTTConfig{}, config.HAConfig{Enabled: true, URL: "http://ha"})
	assert.ErrorContains(t, err, "token is required")

	_, err = New(config.MQTTConfig{Enabled: true}, config.HAConfig{})
	assert.ErrorContains(t, err, "broker address is required")
}

func TestSend_HomeAssistant(t *testing.T) {
	var mu sync.Mutex
	states := map[string]HAState{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ha-token", r.Header.Get("Authorization"))

		var state HAState
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&state))

		mu.Lock()
		states[r.URL.Path] = state
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	pub, err := New(config.MQTTConfig{}, config.HAConfig{Enabled: true, URL: srv.URL, Token: "ha-token"})
	require.NoError(t, err)
	defer pub.Close()

	report := models.Report{
		Summary:     models.Summary{AverageUsage: 4.666, Balance: 86, DaysLeft: 18.43},
		Forecast:    4.3333,
		GeneratedAt: time.Date(2025, 4, 2, 7, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Send(context.Background(), report))

	require.Len(t, states, 4)
	assert.Equal(t, "86.00", states["/api/states/sensor.powerpal_balance"].State)
	assert.Equal(t, "4.67", states["/api/states/sensor.powerpal_average_usage"].State)
	assert.Equal(t, "18.40", states["/api/states/sensor.powerpal_days_left"].State)
	assert.Equal(t, "4.33", states["/api/states/sensor.powerpal_forecast"].State)
	assert.Equal(t, "units", states["/api/states/sensor.powerpal_balance"].Attributes["unit_of_measurement"])
}

func TestSend_HomeAssistantError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	pub, err := New(config.MQTTConfig{}, config.HAConfig{Enabled: true, URL: srv.URL, Token: "bad", EntityPrefix: "sensor.meter"})
	require.NoError(t, err)

	err = pub.Send(context.Background(), models.Report{})
	assert.ErrorContains(t, err, "posting balance")
	assert.ErrorContains(t, err, "status 401")
}
