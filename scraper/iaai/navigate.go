package iaai

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"auction-scraper/config"
)

const readyStatePoll = 200 * time.Millisecond

// navigateAction loads url and returns once the page satisfies ws.
func navigateAction(url string, ws config.WaitStrategy) chromedp.Action {
	switch ws {
	case config.WaitLoad:
		return chromedp.Navigate(url)
	case config.WaitCommit:
		return chromedp.ActionFunc(func(ctx context.Context) error {
			return commitNavigate(ctx, url)
		})
	default:
		return chromedp.ActionFunc(func(ctx context.Context) error {
			if err := commitNavigate(ctx, url); err != nil {
				return err
			}
			return waitReadyState(ctx, "interactive", "complete")
		})
	}
}

// commitNavigate starts the navigation and returns when the browser has
// received the initial response.
func commitNavigate(ctx context.Context, url string) error {
	_, _, errorText, err := page.Navigate(url).Do(ctx)
	if err != nil {
		return err
	}
	if errorText != "" {
		return fmt.Errorf("page load error %s", errorText)
	}
	return nil
}

// waitReadyState polls document.readyState until it reaches one of states.
// Evaluation errors while the new document is being created are ignored.
func waitReadyState(ctx context.Context, states ...string) error {
	ticker := time.NewTicker(readyStatePoll)
	defer ticker.Stop()

	for {
		var state string
		if err := chromedp.Evaluate(`document.readyState`, &state).Do(ctx); err == nil {
			for _, s := range states {
				if state == s {
					return nil
				}
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
