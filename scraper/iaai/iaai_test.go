package iaai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"auction-scraper/config"
	"auction-scraper/scraper"
	"auction-scraper/utils"
)

func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests skipped in -short mode")
	}
	if findChromeBinary() == "" {
		t.Skip("no Chrome/Chromium binary found")
	}
}

func testBrowser(t *testing.T, timeoutMs int, ws config.WaitStrategy) *Browser {
	t.Helper()
	cfg := &config.Config{
		TimeoutMs:     timeoutMs,
		WaitStrategy:  ws,
		SettleDelayMs: 0,
		Headless:      true,
		Stealth:       true,
		UserAgent:     "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Locale:        "en-US",
		Timezone:      "America/Toronto",
	}
	b := New(cfg, utils.NewLoggerTo(io.Discard, io.Discard))
	t.Cleanup(b.Close)
	return b
}

func TestFindChromeBinaryHonoursEnv(t *testing.T) {
	t.Setenv("CHROME_BIN", "/opt/custom/chrome")
	if got := findChromeBinary(); got != "/opt/custom/chrome" {
		t.Errorf("findChromeBinary: got %q, want /opt/custom/chrome", got)
	}
}

func TestCloseWithoutStart(t *testing.T) {
	b := New(&config.Config{}, utils.NewLoggerTo(io.Discard, io.Discard))
	b.Close()
}

// offlineBrowser returns a Browser whose launch is a no-op and whose page
// loads are answered by fetch.
func offlineBrowser(ws config.WaitStrategy, fetch func(ctx context.Context, url string, ws config.WaitStrategy) (string, error)) *Browser {
	b := New(&config.Config{WaitStrategy: ws}, utils.NewLoggerTo(io.Discard, io.Discard))
	b.retry.BaseDelay = time.Millisecond
	b.launch = func(context.Context) error { return nil }
	b.fetchPage = fetch
	return b
}

func TestStrategyPerAttempt(t *testing.T) {
	for _, ws := range []config.WaitStrategy{config.WaitInteractive, config.WaitLoad, config.WaitCommit} {
		b := New(&config.Config{WaitStrategy: ws}, utils.NewLoggerTo(io.Discard, io.Discard))
		if got := b.strategyFor(0); got != ws {
			t.Errorf("%s: attempt 0 got %q", ws, got)
		}
		if got := b.strategyFor(1); got != config.WaitCommit {
			t.Errorf("%s: attempt 1 got %q, want commit", ws, got)
		}
	}
}

func TestFetchRetriesWithCommitAfterTimeout(t *testing.T) {
	var used []config.WaitStrategy
	b := offlineBrowser(config.WaitLoad, func(ctx context.Context, url string, ws config.WaitStrategy) (string, error) {
		used = append(used, ws)
		if len(used) == 1 {
			return "", fmt.Errorf("navigate (%s): %w", ws, context.DeadlineExceeded)
		}
		return "<html>ok</html>", nil
	})

	html, err := b.Fetch(context.Background(), "https://example.com/lot/1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if html != "<html>ok</html>" {
		t.Errorf("html: got %q", html)
	}
	want := []config.WaitStrategy{config.WaitLoad, config.WaitCommit}
	if diff := cmp.Diff(want, used); diff != "" {
		t.Errorf("strategies mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchBothAttemptsFailing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"timeout", context.DeadlineExceeded, scraper.ErrNavigationTimeout},
		{"network", errors.New("page load error net::ERR_NAME_NOT_RESOLVED"), scraper.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			b := offlineBrowser(config.WaitInteractive, func(context.Context, string, config.WaitStrategy) (string, error) {
				calls++
				return "", tt.err
			})

			_, err := b.Fetch(context.Background(), "https://example.com/lot/2")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if calls != 2 {
				t.Errorf("attempts: got %d, want 2", calls)
			}
		})
	}
}

func TestFetchLaunchFailure(t *testing.T) {
	b := offlineBrowser(config.WaitInteractive, func(context.Context, string, config.WaitStrategy) (string, error) {
		t.Fatal("page fetched after failed launch")
		return "", nil
	})
	b.launch = func(context.Context) error { return errors.New("exec: chrome not found") }

	if _, err := b.Fetch(context.Background(), "https://example.com/lot/3"); !errors.Is(err, scraper.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestLaunchReceivesFetchContext(t *testing.T) {
	b := offlineBrowser(config.WaitInteractive, func(ctx context.Context, _ string, _ config.WaitStrategy) (string, error) {
		return "", ctx.Err()
	})
	var launchErr error
	b.launch = func(ctx context.Context) error {
		launchErr = ctx.Err()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Fetch(ctx, "https://example.com/lot/4"); err == nil {
		t.Error("expected an error for a cancelled fetch")
	}
	if !errors.Is(launchErr, context.Canceled) {
		t.Errorf("launch context: got %v, want context.Canceled", launchErr)
	}
}

func TestFetchRendersScriptContent(t *testing.T) {
	requireChrome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>2018 Honda Civic</title></head><body>
			<dl id="data"><dt>Stock #</dt></dl>
			<script>
				var dd = document.createElement('dd');
				dd.textContent = ['rendered', 'by', 'script'].join('-');
				document.getElementById('data').appendChild(dd);
			</script>
		</body></html>`)
	}))
	defer srv.Close()

	for _, ws := range []config.WaitStrategy{config.WaitInteractive, config.WaitLoad, config.WaitCommit} {
		t.Run(string(ws), func(t *testing.T) {
			b := testBrowser(t, 15000, ws)
			html, err := b.Fetch(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if !strings.Contains(html, "rendered-by-script") {
				t.Errorf("rendered HTML missing script output:\n%s", html)
			}
		})
	}
}

func TestFetchTimeoutIsClassified(t *testing.T) {
	requireChrome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}))
	defer srv.Close()

	b := testBrowser(t, 500, config.WaitInteractive)
	_, err := b.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, scraper.ErrNavigationTimeout) {
		t.Errorf("expected ErrNavigationTimeout, got %v", err)
	}
	b.Close()
}
