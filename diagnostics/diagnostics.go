// Package diagnostics captures screenshots and structured progress logs at
// the milestones of a scrape session. Every capture is best-effort: a failed
// screenshot or log write never aborts the scrape.
package diagnostics

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Shooter is the part of the browser session diagnostics needs.
type Shooter interface {
	Screenshot() ([]byte, error)
}

// Diagnostics numbers screenshots in capture order so the artifact directory
// reads as a timeline of the session.
type Diagnostics struct {
	runID         string
	screenshotDir string
	logger        *log.Logger
	logFile       *os.File
	seq           int
}

// New creates a Diagnostics writing screenshots under screenshotDir and log
// lines to stderr plus logFile when set. Directory creation failures are
// reported once and captures degrade to log-only.
func New(screenshotDir, logFile string) *Diagnostics {
	d := &Diagnostics{
		runID:         uuid.New().String(),
		screenshotDir: screenshotDir,
	}

	out := io.Writer(os.Stderr)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Printf("Warning: failed to open log file %s: %v\n", logFile, err)
		} else {
			d.logFile = f
			out = io.MultiWriter(os.Stderr, f)
		}
	}
	d.logger = log.New(out, "", log.LstdFlags)

	if screenshotDir != "" {
		if err := os.MkdirAll(screenshotDir, 0755); err != nil {
			d.logger.Printf("Warning: failed to create screenshot dir %s: %v\n", screenshotDir, err)
			d.screenshotDir = ""
		}
	}

	d.logger.Printf("[%s] session started\n", d.shortID())
	return d
}

// RunID returns the unique id of this session.
func (d *Diagnostics) RunID() string { return d.runID }

func (d *Diagnostics) shortID() string {
	if len(d.runID) >= 8 {
		return d.runID[:8]
	}
	return d.runID
}

// Checkpoint captures a numbered screenshot for a session milestone and logs
// it. Labels become file names, e.g. "page_loaded" -> 01_page_loaded.png.
func (d *Diagnostics) Checkpoint(shooter Shooter, label string) {
	d.seq++
	d.logger.Printf("[%s] checkpoint %02d: %s\n", d.shortID(), d.seq, label)

	if d.screenshotDir == "" || shooter == nil {
		return
	}
	buf, err := shooter.Screenshot()
	if err != nil {
		d.logger.Printf("[%s] Warning: screenshot failed at %s: %v\n", d.shortID(), label, err)
		return
	}
	name := fmt.Sprintf("%02d_%s.png", d.seq, label)
	path := filepath.Join(d.screenshotDir, name)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		d.logger.Printf("[%s] Warning: failed to write %s: %v\n", d.shortID(), path, err)
		return
	}
	d.logger.Printf("[%s] saved screenshot %s\n", d.shortID(), name)
}

// Event logs a progress line without a screenshot.
func (d *Diagnostics) Event(format string, args ...interface{}) {
	d.logger.Printf("[%s] "+format+"\n", append([]interface{}{d.shortID()}, args...)...)
}

// Error logs a failure with its context label.
func (d *Diagnostics) Error(label string, err error) {
	d.logger.Printf("[%s] ERROR at %s: %v\n", d.shortID(), label, err)
}

// SavePageSource dumps the current view's HTML next to the screenshots, for
// offline inspection of layouts the parser did not recognize.
func (d *Diagnostics) SavePageSource(html, label string) {
	if d.screenshotDir == "" {
		return
	}
	path := filepath.Join(d.screenshotDir, label+".html")
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		d.logger.Printf("[%s] Warning: failed to write page source %s: %v\n", d.shortID(), path, err)
		return
	}
	d.logger.Printf("[%s] saved page source %s\n", d.shortID(), filepath.Base(path))
}

// Close releases the log file, if any.
func (d *Diagnostics) Close() {
	d.logger.Printf("[%s] session finished\n", d.shortID())
	if d.logFile != nil {
		d.logFile.Close()
	}
}
