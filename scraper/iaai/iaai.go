package iaai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/stealth"

	"auction-scraper/config"
	"auction-scraper/scraper"
	"auction-scraper/utils"
)

// webdriverPatch hides the most common automation markers on top of the
// stealth bundle.
const webdriverPatch = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'platform', { get: () => 'MacIntel' });
window.chrome = window.chrome || { runtime: {} };
`

// acceptCookiesJS clicks the first consent button labelled "Accept".
const acceptCookiesJS = `
(function() {
	var buttons = document.querySelectorAll('button, a[role="button"], input[type="button"]');
	for (var i = 0; i < buttons.length; i++) {
		var text = (buttons[i].innerText || buttons[i].value || '').trim().toLowerCase();
		if (text === 'accept' || text === 'accept all' || text === 'accept cookies') {
			buttons[i].click();
			return true;
		}
	}
	return false;
})()
`

// Browser renders pages in a single headless Chrome tab, one at a time.
// Chrome is launched on the first Fetch and reused until Close.
type Browser struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig

	// launch and fetchPage are replaced in tests that run without Chrome.
	launch    func(ctx context.Context) error
	fetchPage func(ctx context.Context, url string, ws config.WaitStrategy) (string, error)

	once     sync.Once
	startErr error
	tabCtx   context.Context
	cancel   func()
}

// New creates a Browser. Nothing is launched until the first Fetch.
func New(cfg *config.Config, logger *utils.Logger) *Browser {
	b := &Browser{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: 2,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
	}
	b.launch = b.start
	b.fetchPage = b.fetchOnce
	return b
}

// strategyFor returns the wait strategy of a zero-based attempt: the
// configured one first, then commit for every retry.
func (b *Browser) strategyFor(attempt int) config.WaitStrategy {
	if attempt == 0 && b.cfg.WaitStrategy != "" {
		return b.cfg.WaitStrategy
	}
	return config.WaitCommit
}

// Fetch navigates to url and returns the rendered HTML. The first attempt
// waits for the configured strategy; the retry only waits for the initial
// response. Errors wrap scraper.ErrNavigationTimeout or scraper.ErrNetwork.
func (b *Browser) Fetch(ctx context.Context, url string) (string, error) {
	b.once.Do(func() { b.startErr = b.launch(ctx) })
	if b.startErr != nil {
		return "", scraper.ClassifyFetchError(b.startErr)
	}

	var html string
	err := b.retry.Do(ctx, "fetch "+url, func(attempt int) error {
		h, err := b.fetchPage(ctx, url, b.strategyFor(attempt))
		if err != nil {
			return err
		}
		html = h
		return nil
	})
	if err != nil {
		return "", scraper.ClassifyFetchError(err)
	}
	return html, nil
}

// Close shuts down Chrome. It is safe to call when nothing was started.
func (b *Browser) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Browser) start(ctx context.Context) error {
	chromeBin := b.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	b.logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1366, 768),
		chromedp.UserAgent(b.cfg.UserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	b.tabCtx = tabCtx
	b.cancel = func() {
		cancelTab()
		cancelAlloc()
	}

	if err := chromedp.Run(tabCtx, chromedp.ActionFunc(b.setupSession)); err != nil {
		return fmt.Errorf("browser: start: %w", err)
	}

	if b.cfg.WarmupEnabled && b.cfg.WarmupURL != "" {
		if err := b.warmup(ctx); err != nil {
			b.logger.Warn("[browser] Warm-up on %s failed: %v", b.cfg.WarmupURL, err)
		}
	}
	return nil
}

// setupSession applies emulation and the stealth scripts to the tab.
func (b *Browser) setupSession(ctx context.Context) error {
	if b.cfg.Stealth {
		if _, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx); err != nil {
			return fmt.Errorf("inject stealth script: %w", err)
		}
		if _, err := page.AddScriptToEvaluateOnNewDocument(webdriverPatch).Do(ctx); err != nil {
			return fmt.Errorf("inject webdriver patch: %w", err)
		}
	}
	if b.cfg.Timezone != "" {
		if err := emulation.SetTimezoneOverride(b.cfg.Timezone).Do(ctx); err != nil {
			return fmt.Errorf("timezone %q: %w", b.cfg.Timezone, err)
		}
	}
	if b.cfg.Locale != "" {
		if err := emulation.SetLocaleOverride().WithLocale(b.cfg.Locale).Do(ctx); err != nil {
			return fmt.Errorf("locale %q: %w", b.cfg.Locale, err)
		}
	}
	return nil
}

// warmup visits the homepage once to pick up cookies and dismiss the
// consent banner.
func (b *Browser) warmup(parent context.Context) error {
	ctx, cancel := context.WithTimeout(b.tabCtx, b.timeout()+5*time.Second)
	defer cancel()
	stop := context.AfterFunc(parent, cancel)
	defer stop()

	var clicked bool
	err := chromedp.Run(ctx,
		navigateAction(b.cfg.WarmupURL, config.WaitInteractive),
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.Evaluate(acceptCookiesJS, &clicked),
	)
	if err != nil {
		return err
	}
	b.logger.Debug("[browser] Warm-up done (consent clicked: %v)", clicked)
	return nil
}

func (b *Browser) fetchOnce(parent context.Context, url string, ws config.WaitStrategy) (string, error) {
	navCtx, cancelNav := context.WithTimeout(b.tabCtx, b.timeout())
	defer cancelNav()
	stop := context.AfterFunc(parent, cancelNav)
	defer stop()

	if err := chromedp.Run(navCtx, navigateAction(url, ws)); err != nil {
		return "", fmt.Errorf("navigate (%s): %w", ws, err)
	}

	settle := time.Duration(b.cfg.SettleDelayMs) * time.Millisecond
	if ws == config.WaitCommit {
		settle *= 2
	}

	readCtx, cancelRead := context.WithTimeout(b.tabCtx, settle+10*time.Second)
	defer cancelRead()
	stopRead := context.AfterFunc(parent, cancelRead)
	defer stopRead()

	var html string
	err := chromedp.Run(readCtx,
		chromedp.Sleep(settle),
		// Scroll to trigger lazy-loaded content
		chromedp.Evaluate(`window.scrollBy(0, 1200)`, nil),
		chromedp.Sleep(800*time.Millisecond),
		chromedp.Evaluate(`document.documentElement ? document.documentElement.outerHTML : ''`, &html),
	)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	b.logger.Debug("[browser] %s: %d bytes via %s", url, len(html), ws)
	return html, nil
}

func (b *Browser) timeout() time.Duration {
	return time.Duration(b.cfg.TimeoutMs) * time.Millisecond
}
