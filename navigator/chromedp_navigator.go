package navigator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/chromedp/chromedp"

	"catalog-scraper/models"
)

// ChromedpNavigator implements the Navigator interface using chromedp. It
// reaches into the content frame through the iframe's contentDocument, which
// requires the frame to be same-origin with the host page. The catalog hosts
// this targets serve the iframe from the same portal.
type ChromedpNavigator struct {
	opts        Options
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	frameName   string
}

// NewChromedpNavigator starts a Chrome instance via chromedp.
func NewChromedpNavigator(opts Options) (*ChromedpNavigator, error) {
	opts = opts.withDefaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Run with no actions to start the browser eagerly, so launch failures
	// surface here instead of on the first navigation.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &ChromedpNavigator{
		opts:        opts,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Close shuts the browser down.
func (cn *ChromedpNavigator) Close() error {
	cn.cancel()
	cn.allocCancel()
	return nil
}

// run executes actions against the session with the configured timeout.
func (cn *ChromedpNavigator) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(cn.ctx, cn.opts.WaitTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// docExpr is the JS expression for the current view's document: the content
// frame's document once entered, the top document otherwise.
func (cn *ChromedpNavigator) docExpr() string {
	if cn.frameName == "" {
		return "document"
	}
	name, _ := json.Marshal(cn.frameName)
	return fmt.Sprintf(
		`(document.querySelector("iframe[name=" + JSON.stringify(%s) + "]") || document.getElementById(%s)).contentDocument`,
		string(name), string(name))
}

// eval evaluates a JS expression and decodes the result into res.
func (cn *ChromedpNavigator) eval(expr string, res interface{}) error {
	return cn.run(chromedp.Evaluate(expr, res))
}

// OpenCatalog implements the Navigator interface.
func (cn *ChromedpNavigator) OpenCatalog(url string) error {
	cn.frameName = ""
	err := cn.run(
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	return nil
}

// EnterCollegeSection implements the Navigator interface.
func (cn *ChromedpNavigator) EnterCollegeSection(patterns []string) error {
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	pats, err := json.Marshal(lowered)
	if err != nil {
		return &ElementNotFoundError{Locator: "section link"}
	}

	expr := fmt.Sprintf(`(() => {
		const patterns = %s
		for (const a of Array.from(document.querySelectorAll('a'))) {
			const hay = [a.innerText || '', a.href || '', a.title || ''].map(s => s.toLowerCase())
			for (const p of patterns) {
				if (p && hay.some(h => h.includes(p))) {
					a.scrollIntoView({ block: 'center' })
					a.click()
					return true
				}
			}
		}
		return false
	})()`, string(pats))

	var clicked bool
	if err := cn.eval(expr, &clicked); err != nil || !clicked {
		return &ElementNotFoundError{Locator: fmt.Sprintf("section link matching %v", patterns)}
	}

	if err := cn.run(chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return &NavigationError{URL: "section link target", Err: err}
	}
	cn.frameName = ""
	return nil
}

// EnterContentFrame implements the Navigator interface.
func (cn *ChromedpNavigator) EnterContentFrame(candidates []string) (string, error) {
	const listExpr = `Array.from(document.querySelectorAll('iframe')).map(f => ({ name: f.name || '', id: f.id || '' }))`

	var matched string
	err := waitFor(cn.opts.WaitTimeout, cn.opts.PollInterval, func() (bool, error) {
		var frames []frameInfo
		if err := cn.eval(listExpr, &frames); err != nil {
			return false, nil
		}
		_, name, ok := pickFrame(candidates, frames)
		if !ok {
			return false, nil
		}
		matched = name
		return true, nil
	})
	if err != nil {
		return "", &FrameNotFoundError{Candidates: candidates}
	}

	cn.frameName = matched

	// Verify the frame document is reachable (same-origin).
	var reachable bool
	if err := cn.eval(cn.docExpr()+" != null", &reachable); err != nil || !reachable {
		cn.frameName = ""
		return "", &FrameNotFoundError{Candidates: candidates}
	}
	log.Printf("Switched into content frame %q\n", matched)
	return matched, nil
}

// Subjects implements the Navigator interface.
func (cn *ChromedpNavigator) Subjects() ([]models.Subject, error) {
	sels, _ := json.Marshal(subjectSelectSelectors)
	expr := fmt.Sprintf(`(() => {
		const doc = %s
		for (const sel of %s) {
			const el = doc.querySelector(sel)
			if (el) {
				return Array.from(el.options)
					.filter(o => o.value && o.value.trim() !== '')
					.map(o => ({ code: o.value, name: o.text.trim() }))
			}
		}
		return null
	})()`, cn.docExpr(), string(sels))

	var subjects []models.Subject
	if err := cn.eval(expr, &subjects); err != nil {
		return nil, &ElementNotFoundError{Locator: "subject dropdown"}
	}
	if subjects == nil {
		return nil, &ElementNotFoundError{Locator: fmt.Sprintf("any of %v", subjectSelectSelectors)}
	}
	log.Printf("Found %d subjects in dropdown\n", len(subjects))
	return subjects, nil
}

// SubmitSearch implements the Navigator interface.
func (cn *ChromedpNavigator) SubmitSearch(criterion models.SearchCriterion) (SearchOutcome, error) {
	if ok, err := cn.setSelect(subjectSelectSelectors, criterion.Subject); err != nil || !ok {
		return 0, &FormInteractionError{
			Subject: criterion.Subject,
			Err:     &ElementNotFoundError{Locator: fmt.Sprintf("any of %v", subjectSelectSelectors)},
		}
	}
	if criterion.Term != "" {
		if ok, err := cn.setSelect(termSelectSelectors, criterion.Term); err != nil || !ok {
			log.Printf("Warning: failed to select term %s\n", criterion.Term)
		}
	}

	baseline, _ := cn.HTML()

	clickExpr := fmt.Sprintf(`(() => {
		const btn = (%s).querySelector(%q)
		if (!btn) return false
		btn.click()
		return true
	})()`, cn.docExpr(), submitSelectors)
	var clicked bool
	if err := cn.eval(clickExpr, &clicked); err != nil || !clicked {
		return 0, &FormInteractionError{
			Subject: criterion.Subject,
			Err:     &ElementNotFoundError{Locator: submitSelectors},
		}
	}

	outcome := OutcomeResults
	err := waitFor(cn.opts.WaitTimeout, cn.opts.PollInterval, func() (bool, error) {
		html, err := cn.HTML()
		if err != nil || html == baseline {
			return false, nil
		}
		switch inspectView(html, cn.opts.ResultsSelectors, cn.opts.NoResultsMarkers) {
		case viewResults:
			outcome = OutcomeResults
			return true, nil
		case viewNoResults:
			outcome = OutcomeNoResults
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return 0, &FormInteractionError{Subject: criterion.Subject, Err: err}
	}
	return outcome, nil
}

// setSelect sets the first matching <select> to the given value and fires a
// change event. Returns whether a control was found.
func (cn *ChromedpNavigator) setSelect(selectors []string, value string) (bool, error) {
	sels, _ := json.Marshal(selectors)
	val, _ := json.Marshal(value)
	expr := fmt.Sprintf(`(() => {
		const doc = %s
		for (const sel of %s) {
			const el = doc.querySelector(sel)
			if (el) {
				el.value = %s
				el.dispatchEvent(new Event('change', { bubbles: true }))
				return true
			}
		}
		return false
	})()`, cn.docExpr(), string(sels), string(val))

	var found bool
	err := cn.eval(expr, &found)
	return found, err
}

// HTML implements the Navigator interface.
func (cn *ChromedpNavigator) HTML() (string, error) {
	var html string
	err := cn.eval(cn.docExpr()+".documentElement.outerHTML", &html)
	if err != nil {
		return "", err
	}
	return html, nil
}

// Screenshot implements the Navigator interface.
func (cn *ChromedpNavigator) Screenshot() ([]byte, error) {
	var buf []byte
	if err := cn.run(chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}
