// Package browser executes action tasks against the support portal, either
// through a real Chrome instance or a simulated executor.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/rahul/sahaay/internal/conversation"
)

// Config describes the support portal the executor automates.
type Config struct {
	PortalURL      string
	InputSelector  string // text input that accepts the request
	SubmitSelector string // button that submits it
	Headless       bool
	Timeout        time.Duration
	ScreenshotDir  string // empty disables screenshots
}

// Executor drives a Chrome instance against the support portal. The browser
// is started lazily on the first task and reused until Close.
type Executor struct {
	mu            sync.Mutex
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc

	cfg      Config
	sanitize *bluemonday.Policy
}

func NewExecutor(cfg Config) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Executor{
		cfg:      cfg,
		sanitize: bluemonday.StrictPolicy(),
	}
}

func (e *Executor) initBrowser() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browserCtx != nil {
		select {
		case <-e.browserCtx.Done():
			e.cleanup()
		default:
			return nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", e.cfg.Headless),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	e.allocCtx, e.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	e.browserCtx, e.browserCancel = chromedp.NewContext(e.allocCtx)

	return chromedp.Run(e.browserCtx)
}

func (e *Executor) cleanup() {
	if e.browserCancel != nil {
		e.browserCancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	e.browserCtx = nil
	e.allocCtx = nil
}

// Close shuts the browser down. Safe to call more than once.
func (e *Executor) Close() {
	e.mu.Lock()
	e.cleanup()
	e.mu.Unlock()
}

// ExecuteTask submits the task to the portal: navigate, type the request
// into the configured input, submit, then report what the portal answered.
// The final page text is extracted with readability and sanitized so the
// result is readable by the operator, not raw HTML.
func (e *Executor) ExecuteTask(ctx context.Context, task *conversation.Task) (string, error) {
	if e.cfg.PortalURL == "" {
		return "", fmt.Errorf("no portal URL configured")
	}
	if err := e.initBrowser(); err != nil {
		return "", fmt.Errorf("failed to initialize browser: %v", err)
	}

	actionCtx, cancel := context.WithTimeout(e.browserCtx, e.cfg.Timeout)
	defer cancel()

	actions := []chromedp.Action{
		chromedp.Navigate(e.cfg.PortalURL),
	}
	if e.cfg.InputSelector != "" {
		actions = append(actions,
			chromedp.WaitVisible(e.cfg.InputSelector, chromedp.ByQuery),
			chromedp.SendKeys(e.cfg.InputSelector, task.Description, chromedp.ByQuery),
		)
		if e.cfg.SubmitSelector != "" {
			actions = append(actions, chromedp.Click(e.cfg.SubmitSelector, chromedp.ByQuery))
		} else {
			actions = append(actions, chromedp.KeyEvent("\r"))
		}
	}

	var html string
	actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))

	if err := chromedp.Run(actionCtx, actions...); err != nil {
		return "", fmt.Errorf("portal automation failed: %v", err)
	}

	if e.cfg.ScreenshotDir != "" {
		e.screenshot(actionCtx, task.ID)
	}

	text, err := e.extractText(html)
	if err != nil {
		return "", fmt.Errorf("failed to read portal response: %v", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Submitted to portal: %s\n", task.Description)
	if len(task.GeneratedPlan) > 0 {
		b.WriteString("Plan:\n")
		for i, step := range task.GeneratedPlan {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
	}
	b.WriteString("\n-- PORTAL RESPONSE --\n")
	b.WriteString(text)
	return b.String(), nil
}

func (e *Executor) extractText(html string) (string, error) {
	parsedURL, err := url.Parse(e.cfg.PortalURL)
	if err != nil {
		return "", err
	}
	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return "", err
	}
	text := e.sanitize.Sanitize(article.TextContent)
	if len(text) > 4000 {
		text = text[:4000] + "\n... (truncated)"
	}
	return strings.TrimSpace(text), nil
}

// screenshot keeps an audit artifact of the final portal state. Failures
// only lose the artifact, never the task result.
func (e *Executor) screenshot(ctx context.Context, taskID string) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return
	}
	if err := os.MkdirAll(e.cfg.ScreenshotDir, 0755); err != nil {
		return
	}
	path := filepath.Join(e.cfg.ScreenshotDir, fmt.Sprintf("task_%s.png", taskID))
	_ = os.WriteFile(path, buf, 0644)
}
