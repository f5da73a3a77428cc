package notifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/powerpal/internal/config"
	"github.com/jgoulah/powerpal/pkg/models"
)

func testReport() models.Report {
	return models.Report{
		Summary:     models.Summary{AverageUsage: 14.0 / 3, Balance: 86, DaysLeft: 86 / (14.0 / 3), Window: 3},
		Forecast:    4.333333,
		GeneratedAt: time.Date(2025, 4, 2, 7, 0, 0, 0, time.UTC),
	}
}

func TestFormatReport(t *testing.T) {
	want := "⚡ PowerPal Report ⚡\n" +
		"Balance: 86.00 units\n" +
		"Avg Daily Usage: 4.67 units\n" +
		"Predicted Tomorrow: 4.33 units\n" +
		"Days Left: 18.4"
	assert.Equal(t, want, FormatReport(testReport()))
}

func TestTwilio_Send(t *testing.T) {
	var called atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "whatsapp:+14155238886", r.PostForm.Get("From"))
		assert.Equal(t, "whatsapp:+2348000000000", r.PostForm.Get("To"))
		assert.Contains(t, r.PostForm.Get("Body"), "Days Left: 18.4")

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	tw, err := NewTwilio(config.TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "whatsapp:+14155238886",
		To:         "whatsapp:+2348000000000",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)

	require.NoError(t, tw.Send(context.Background(), testReport()))
	assert.True(t, called.Load())
}

func TestTwilio_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Authenticate"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	tw, err := NewTwilio(config.TwilioConfig{AccountSID: "AC1", AuthToken: "x", From: "a", To: "b", BaseURL: srv.URL})
	require.NoError(t, err)

	err = tw.Send(context.Background(), testReport())
	assert.ErrorContains(t, err, "status 401")
}

func TestNewTwilio_RequiresCredentials(t *testing.T) {
	_, err := NewTwilio(config.TwilioConfig{From: "a", To: "b"})
	assert.Error(t, err)

	_, err = NewTwilio(config.TwilioConfig{AccountSID: "AC1", AuthToken: "x"})
	assert.Error(t, err)
}

type recordingNotifier struct {
	name string
	err  error
	sent atomic.Int32
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Send(ctx context.Context, report models.Report) error {
	r.sent.Add(1)
	return r.err
}

func TestDispatcher_SendsToAll(t *testing.T) {
	a := &recordingNotifier{name: "a"}
	b := &recordingNotifier{name: "b", err: errors.New("broker down")}
	c := &recordingNotifier{name: "c"}

	d := NewDispatcher(a, b, c)
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, "a,b,c", d.Name())

	err := d.Send(context.Background(), testReport())
	require.Error(t, err)
	assert.ErrorContains(t, err, "sending via b: broker down")

	assert.EqualValues(t, 1, a.sent.Load())
	assert.EqualValues(t, 1, b.sent.Load())
	assert.EqualValues(t, 1, c.sent.Load())
}
