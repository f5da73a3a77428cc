package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/jgoulah/powerpal/internal/config"
)

const portalTimeout = 60 * time.Second

var numberPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// Portal reads the remaining meter balance from a vendor's customer web page
type Portal struct {
	url      string
	selector string
	cookies  []config.Cookie
	headless bool
}

// NewPortal creates a portal reader for the page at url, reading the element matched by selector
func NewPortal(url, selector string, cookies []config.Cookie) *Portal {
	return &Portal{url: url, selector: selector, cookies: cookies, headless: true}
}

// ReadBalance opens the portal with the saved session cookies and parses the balance element
func (p *Portal) ReadBalance(ctx context.Context) (float64, error) {
	if p.url == "" || p.selector == "" {
		return 0, fmt.Errorf("portal url and balance selector are required")
	}

	browserCtx, cancel := NewBrowser(ctx, p.headless)
	defer cancel()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, portalTimeout)
	defer cancelTimeout()

	if err := SetCookies(browserCtx, p.cookies); err != nil {
		return 0, fmt.Errorf("setting cookies: %w", err)
	}

	var text string
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(p.url),
		chromedp.WaitVisible(p.selector, chromedp.ByQuery),
		chromedp.Text(p.selector, &text, chromedp.ByQuery),
	); err != nil {
		return 0, fmt.Errorf("reading balance from portal: %w", err)
	}

	return ParseBalance(text)
}

// ParseBalance extracts the first number from text such as "Balance: 1,234.56 kWh"
func ParseBalance(text string) (float64, error) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("no number in balance text %q", strings.TrimSpace(text))
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing balance %q: %w", match, err)
	}
	return v, nil
}
