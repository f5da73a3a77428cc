package main

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/jgoulah/powerpal/internal/config"
	"github.com/jgoulah/powerpal/internal/scraper"
	"github.com/spf13/cobra"
)

var loginURL string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the meter vendor portal and save cookies",
	Long: `Opens a browser window for you to login manually to the prepaid meter portal.
After successful login, cookies will be extracted and saved to the config file
so the portal meter source can read the balance headlessly.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginURL, "url", "", "Portal login page (default is meter.portal_url)")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFiles(envFile); err != nil {
		return err
	}

	// Environment values stay out of the saved file
	cfg, err := config.LoadFile(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := loginURL
	if url == "" {
		url = cfg.Meter.PortalURL
	}
	if url == "" {
		return fmt.Errorf("no portal url: pass --url or set meter.portal_url in %s", getConfigPath())
	}

	fmt.Printf("Opening browser for %s...\n", url)
	fmt.Println("Please log in manually in the browser window.")
	fmt.Println("Once your balance is visible, press Enter here to save...")

	ctx, cancel := scraper.NewBrowser(context.Background(), false)
	defer cancel()

	// Set a longer timeout for user to login
	ctx, cancel = context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if err := chromedp.Run(ctx,
		network.Enable(),
		chromedp.Navigate(url),
	); err != nil {
		return fmt.Errorf("navigating to login page: %w", err)
	}

	// Wait for user to press Enter
	fmt.Scanln()

	fmt.Println("Extracting cookies...")
	cookies, err := scraper.ExtractCookies(ctx)
	if err != nil {
		return fmt.Errorf("extracting cookies: %w", err)
	}

	if len(cookies) == 0 {
		return fmt.Errorf("no cookies found - make sure you're logged in")
	}

	cfg.Meter.Cookies = cookies
	if cfg.Meter.PortalURL == "" {
		cfg.Meter.PortalURL = url
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("✓ Successfully saved %d cookies\n", len(cookies))
	if cfg.Meter.BalanceSelector == "" {
		fmt.Println("  ⚠ Set meter.balance_selector in the config to the CSS selector of the balance element")
	}
	return nil
}
