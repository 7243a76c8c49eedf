package navigator

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"catalog-scraper/models"
)

// Selectors for the search controls. PeopleSoft-style catalogs name these
// inconsistently, so several variants are tried in order.
var (
	subjectSelectSelectors = []string{
		"select[name*='subject']", "select[id*='subject']",
		"select[name*='dept']", "select[id*='dept']",
	}
	termSelectSelectors = []string{
		"select[name*='term']", "select[id*='term']",
	}
	submitSelectors = "input[type='submit'], button[type='submit']"
)

// RodNavigator implements the Navigator interface using rod (headless browser)
type RodNavigator struct {
	opts    Options
	browser *rod.Browser
	page    *rod.Page
	frame   *rod.Page // non-nil once EnterContentFrame succeeded
}

// NewRodNavigator launches a Chrome/Chromium instance and connects to it.
func NewRodNavigator(opts Options) (*RodNavigator, error) {
	opts = opts.withDefaults()

	// Get user data directory from environment or use default
	// This should be mounted as a volume to use disk instead of memory
	userDataDir := os.Getenv("CATALOG_DATA_DIR")
	if userDataDir == "" {
		userDataDir = "/tmp/catalog-data"
	}

	if err := os.MkdirAll(userDataDir, 0755); err != nil {
		log.Printf("Warning: Failed to create data directory %s: %v\n", userDataDir, err)
		userDataDir = ""
	}

	// Try to use system Chrome first, fallback to downloading Chromium
	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false). // Disable leakless to avoid antivirus issues
		UserDataDir(userDataDir).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-breakpad").
		Set("disable-client-side-phishing-detection").
		Set("disable-default-apps").
		Set("disable-hang-monitor").
		Set("disable-popup-blocking").
		Set("disable-prompt-on-repost").
		Set("disable-sync").
		Set("disable-translate").
		Set("metrics-recording-only").
		Set("mute-audio").
		Set("no-zygote").
		Set("window-size", "1920,1080").
		Set("use-mock-keychain")

	// Try Linux Chrome/Chromium paths
	linuxPaths := []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
	}
	for _, path := range linuxPaths {
		if _, err := os.Stat(path); err == nil {
			l = l.Bin(path)
			break
		}
	}

	// Check Windows paths
	chromePaths := []string{
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	}
	if username := os.Getenv("USERNAME"); username != "" {
		chromePaths = append(chromePaths, `C:\Users\`+username+`\AppData\Local\Google\Chrome\Application\chrome.exe`)
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			l = l.Bin(path)
			break
		}
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w\n\nNote: On Linux, you may need to install Chromium dependencies:\n  apt-get update && apt-get install -y chromium chromium-sandbox || yum install -y chromium", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodNavigator{
		opts:    opts,
		browser: browser,
	}, nil
}

// Close closes the browser
func (rn *RodNavigator) Close() error {
	if rn.browser != nil {
		return rn.browser.Close()
	}
	return nil
}

// view returns the current interaction context: the content frame once
// entered, the top-level page otherwise.
func (rn *RodNavigator) view() *rod.Page {
	if rn.frame != nil {
		return rn.frame
	}
	return rn.page
}

// OpenCatalog implements the Navigator interface.
func (rn *RodNavigator) OpenCatalog(url string) error {
	page, err := rn.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	rn.page = page
	rn.frame = nil

	if err := page.Timeout(rn.opts.WaitTimeout).Navigate(url); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	if err := page.Timeout(rn.opts.WaitTimeout).WaitLoad(); err != nil {
		return &NavigationError{URL: url, Err: err}
	}

	// Dynamic content keeps rendering after the load event.
	err = waitFor(rn.opts.WaitTimeout, rn.opts.PollInterval, func() (bool, error) {
		has, _, err := page.Has("body")
		if err != nil {
			return false, nil
		}
		return has, nil
	})
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	if err := page.Timeout(rn.opts.WaitTimeout).WaitStable(time.Second); err != nil {
		log.Printf("Warning: page did not stabilize: %v\n", err)
	}
	return nil
}

// EnterCollegeSection implements the Navigator interface.
func (rn *RodNavigator) EnterCollegeSection(patterns []string) error {
	links, err := rn.view().Elements("a")
	if err != nil {
		return &ElementNotFoundError{Locator: "a"}
	}
	log.Printf("Scanning %d links for section patterns\n", len(links))

	for _, link := range links {
		text, _ := link.Text()
		href := attrOr(link, "href")
		title := attrOr(link, "title")

		pattern, ok := matchesAny(patterns, text, href, title)
		if !ok {
			continue
		}

		visible, _ := link.Visible()
		if !visible {
			log.Printf("Section link matched %q but is not visible, skipping\n", pattern)
			continue
		}

		log.Printf("Found section link (pattern %q): %q -> %s\n", pattern, text, href)
		if err := link.ScrollIntoView(); err == nil {
			if err := link.Click("left", 1); err != nil {
				log.Printf("Click failed, trying JavaScript click: %v\n", err)
				if _, err := link.Eval("() => this.click()"); err != nil {
					continue
				}
			}
		}

		if err := rn.page.Timeout(rn.opts.WaitTimeout).WaitLoad(); err != nil {
			return &NavigationError{URL: href, Err: err}
		}
		// Entering the sub-site replaces the document, any previous frame
		// context is stale.
		rn.frame = nil
		return nil
	}

	return &ElementNotFoundError{Locator: fmt.Sprintf("section link matching %v", patterns)}
}

// EnterContentFrame implements the Navigator interface.
func (rn *RodNavigator) EnterContentFrame(candidates []string) (string, error) {
	var (
		matched  string
		frameEls rod.Elements
	)
	// Frames are injected after load, poll until a candidate shows up.
	err := waitFor(rn.opts.WaitTimeout, rn.opts.PollInterval, func() (bool, error) {
		els, err := rn.page.Elements("iframe")
		if err != nil || len(els) == 0 {
			return false, nil
		}
		frames := make([]frameInfo, len(els))
		for i, el := range els {
			frames[i] = frameInfo{Name: attrOr(el, "name"), ID: attrOr(el, "id")}
		}
		idx, name, ok := pickFrame(candidates, frames)
		if !ok {
			return false, nil
		}
		matched = name
		frameEls = els[idx : idx+1]
		return true, nil
	})
	if err != nil {
		return "", &FrameNotFoundError{Candidates: candidates}
	}

	frame, err := frameEls[0].Frame()
	if err != nil {
		return "", &FrameNotFoundError{Candidates: candidates}
	}
	if err := frame.Timeout(rn.opts.WaitTimeout).WaitLoad(); err != nil {
		log.Printf("Warning: frame %s did not finish loading: %v\n", matched, err)
	}
	rn.frame = frame
	log.Printf("Switched into content frame %q\n", matched)
	return matched, nil
}

// Subjects implements the Navigator interface.
func (rn *RodNavigator) Subjects() ([]models.Subject, error) {
	sel, err := rn.findFirst(subjectSelectSelectors)
	if err != nil {
		return nil, err
	}

	options, err := sel.Elements("option")
	if err != nil {
		return nil, &ElementNotFoundError{Locator: "subject dropdown options"}
	}

	var subjects []models.Subject
	for _, opt := range options {
		value := attrOr(opt, "value")
		if value == "" {
			continue
		}
		text, _ := opt.Text()
		subjects = append(subjects, models.Subject{Code: value, Name: text})
	}
	log.Printf("Found %d subjects in dropdown\n", len(subjects))
	return subjects, nil
}

// SubmitSearch implements the Navigator interface.
func (rn *RodNavigator) SubmitSearch(criterion models.SearchCriterion) (SearchOutcome, error) {
	subjectSel, err := rn.findFirst(subjectSelectSelectors)
	if err != nil {
		return 0, &FormInteractionError{Subject: criterion.Subject, Err: err}
	}
	if err := selectValue(subjectSel, criterion.Subject); err != nil {
		return 0, &FormInteractionError{Subject: criterion.Subject, Err: err}
	}

	if criterion.Term != "" {
		if termSel, err := rn.findFirst(termSelectSelectors); err == nil {
			if err := selectValue(termSel, criterion.Term); err != nil {
				log.Printf("Warning: failed to select term %s: %v\n", criterion.Term, err)
			}
		}
	}

	// Baseline markup lets us tell "still showing the previous results"
	// apart from "updated results view".
	baseline, _ := rn.view().HTML()

	submit, err := rn.view().Timeout(rn.opts.WaitTimeout).Element(submitSelectors)
	if err != nil {
		return 0, &FormInteractionError{Subject: criterion.Subject, Err: &ElementNotFoundError{Locator: submitSelectors}}
	}
	if err := submit.Click("left", 1); err != nil {
		return 0, &FormInteractionError{Subject: criterion.Subject, Err: err}
	}

	outcome := OutcomeResults
	err = waitFor(rn.opts.WaitTimeout, rn.opts.PollInterval, func() (bool, error) {
		html, err := rn.view().HTML()
		if err != nil {
			return false, nil
		}
		if html == baseline {
			return false, nil
		}
		switch inspectView(html, rn.opts.ResultsSelectors, rn.opts.NoResultsMarkers) {
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

// HTML implements the Navigator interface.
func (rn *RodNavigator) HTML() (string, error) {
	return rn.view().HTML()
}

// Screenshot implements the Navigator interface.
func (rn *RodNavigator) Screenshot() ([]byte, error) {
	if rn.page == nil {
		return nil, fmt.Errorf("no page open")
	}
	return rn.page.Screenshot(false, nil)
}

// findFirst returns the first element matching any of the selectors, in order.
func (rn *RodNavigator) findFirst(selectors []string) (*rod.Element, error) {
	for _, sel := range selectors {
		has, el, err := rn.view().Has(sel)
		if err == nil && has {
			return el, nil
		}
	}
	return nil, &ElementNotFoundError{Locator: fmt.Sprintf("any of %v", selectors)}
}

// selectValue sets a <select> element's value and fires a change event, the
// way catalog frontends expect.
func selectValue(el *rod.Element, value string) error {
	_, err := el.Eval(`(v) => {
		this.value = v
		this.dispatchEvent(new Event('change', { bubbles: true }))
	}`, value)
	return err
}

func attrOr(el *rod.Element, name string) string {
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}
