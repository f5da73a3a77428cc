// Package notifier formats usage reports and delivers them to the user.
package notifier

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/powerpal/pkg/models"
)

// Notifier delivers a report over one channel
type Notifier interface {
	Name() string
	Send(ctx context.Context, report models.Report) error
}

// FormatReport renders the report as a short chat message
func FormatReport(report models.Report) string {
	s := report.Summary.Rounded()

	var b strings.Builder
	b.WriteString("⚡ PowerPal Report ⚡\n")
	fmt.Fprintf(&b, "Balance: %.2f units\n", s.Balance)
	fmt.Fprintf(&b, "Avg Daily Usage: %.2f units\n", s.AverageUsage)
	fmt.Fprintf(&b, "Predicted Tomorrow: %.2f units\n", models.Round(report.Forecast, 2))
	fmt.Fprintf(&b, "Days Left: %.1f", s.DaysLeft)
	return b.String()
}

// Dispatcher sends each report to every configured notifier in parallel
type Dispatcher struct {
	notifiers []Notifier
}

// NewDispatcher creates a dispatcher over notifiers
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers}
}

// Len returns the number of configured notifiers
func (d *Dispatcher) Len() int {
	return len(d.notifiers)
}

// Name lists the underlying channels
func (d *Dispatcher) Name() string {
	names := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		names = append(names, n.Name())
	}
	return strings.Join(names, ",")
}

// Send delivers the report on all channels. Every channel is attempted;
// the first failure is returned once all have finished.
func (d *Dispatcher) Send(ctx context.Context, report models.Report) error {
	var g errgroup.Group
	for _, n := range d.notifiers {
		g.Go(func() error {
			if err := n.Send(ctx, report); err != nil {
				return fmt.Errorf("sending via %s: %w", n.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
