package navigator

import (
	"fmt"
	"strings"
)

// NavigationError means the page failed to load or reach a ready state.
// It is fatal at the session level.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed for %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ElementNotFoundError means an expected link or control is absent from the
// view. Recoverable: the caller may retry with an alternate locator strategy.
type ElementNotFoundError struct {
	Locator string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found: %s", e.Locator)
}

// FrameNotFoundError means none of the candidate frame names matched a frame
// on the page.
type FrameNotFoundError struct {
	Candidates []string
}

func (e *FrameNotFoundError) Error() string {
	return fmt.Sprintf("no frame matched candidates [%s]", strings.Join(e.Candidates, ", "))
}

// FormInteractionError means the search controls were present but submission
// produced no observable state change within the timeout.
type FormInteractionError struct {
	Subject string
	Err     error
}

func (e *FormInteractionError) Error() string {
	return fmt.Sprintf("search submission failed for subject %s: %v", e.Subject, e.Err)
}

func (e *FormInteractionError) Unwrap() error { return e.Err }
