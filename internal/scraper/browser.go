package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/jgoulah/powerpal/internal/config"
)

// userAgent is sent by headless sessions so portals serve the desktop page
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// NewBrowser starts a Chrome allocator and tab context. Call cancel to shut the browser down.
func NewBrowser(ctx context.Context, headless bool) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

// ExtractCookies reads the session cookies from the current browser context
func ExtractCookies(ctx context.Context) ([]config.Cookie, error) {
	var cookies []*network.Cookie

	if err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("getting cookies: %w", err)
	}

	return fromNetworkCookies(cookies), nil
}

// SetCookies restores saved cookies into the browser context in one call.
// Cookies that have already expired are skipped.
func SetCookies(ctx context.Context, cookies []config.Cookie) error {
	params := cookieParams(cookies, time.Now())
	if len(params) == 0 {
		return nil
	}

	if err := chromedp.Run(ctx, network.SetCookies(params)); err != nil {
		return fmt.Errorf("setting %d cookies: %w", len(params), err)
	}
	return nil
}

func fromNetworkCookies(cookies []*network.Cookie) []config.Cookie {
	result := make([]config.Cookie, 0, len(cookies))
	for _, c := range cookies {
		saved := config.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite.String(),
		}
		// Session cookies report a placeholder expiry
		if !c.Session {
			saved.Expires = c.Expires
		}
		result = append(result, saved)
	}
	return result
}

func cookieParams(cookies []config.Cookie, now time.Time) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}

		if c.Expires > 0 {
			expires := time.Unix(0, int64(c.Expires*float64(time.Second)))
			if !expires.After(now) {
				continue
			}
			at := cdp.TimeSinceEpoch(expires)
			p.Expires = &at
		}

		switch sameSite := network.CookieSameSite(c.SameSite); sameSite {
		case network.CookieSameSiteStrict, network.CookieSameSiteLax, network.CookieSameSiteNone:
			p.SameSite = sameSite
		}

		params = append(params, p)
	}
	return params
}
