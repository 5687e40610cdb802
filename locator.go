package main

import (
	"errors"
	"fmt"
	"time"
)

// Strategy names one way of querying the page for elements.
type Strategy string

const (
	ByCSS   Strategy = "css"
	ByXPath Strategy = "xpath"
)

// Locator is one (strategy, query) pair.
type Locator struct {
	Strategy Strategy
	Query    string
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Query)
}

// LocatorSpec names one logical UI target and the ordered alternatives that
// may bind it. Every fallback chain in the flow goes through a spec instead
// of ad-hoc retry code at the call site.
type LocatorSpec struct {
	Name         string
	Alternatives []Locator
}

// Handle is a live binding to one element in the page's current state. It is
// only valid within the page context that produced it; navigation invalidates
// it and a fresh resolve is required.
type Handle interface {
	Text() (string, error)
	Click() error
	Type(text string) error
	Attribute(name string) (string, bool, error)
	ScrollIntoView() error

	// FindOne and FindAll are scoped to this element's subtree. FindOne is an
	// immediate lookup: it returns errNoMatch without waiting.
	FindOne(loc Locator) (Handle, error)
	FindAll(loc Locator) ([]Handle, error)

	// Frame enters the embedded document rooted at this element (an iframe).
	// The returned Page is scoped to the frame and must not be retained past
	// the operation that needed it.
	Frame() (Page, error)
}

// Page is the primitive find capability over one document context, either
// the top-level page or an entered frame.
type Page interface {
	FindOne(loc Locator) (Handle, error)
	FindAll(loc Locator) ([]Handle, error)
}

// pollUntil evaluates cond every interval until it reports done, it fails, or
// timeout elapses. The condition is always evaluated at least once, so a zero
// timeout still means one immediate attempt. Returns errWaitTimeout on
// deadline expiry.
func pollUntil(timeout, interval time.Duration, cond func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for {
		done, err := cond()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !time.Now().Before(deadline) {
			return errWaitTimeout
		}
		time.Sleep(interval)
	}
}

// resolve binds spec to a live handle. Alternatives are tried in order; each
// polls for presence at interval against one shared deadline, so the total
// wait is bounded by timeout, not timeout times the number of alternatives.
// An alternative reached after the deadline still gets a single immediate
// probe before the spec is declared NotFound.
func resolve(p Page, spec LocatorSpec, timeout, interval time.Duration) (Handle, error) {
	deadline := time.Now().Add(timeout)

	for _, alt := range spec.Alternatives {
		alt := alt
		var found Handle
		err := pollUntil(time.Until(deadline), interval, func() (bool, error) {
			h, err := p.FindOne(alt)
			if err == nil {
				found = h
				return true, nil
			}
			if errors.Is(err, errNoMatch) {
				return false, nil
			}
			return false, err
		})
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, errWaitTimeout) {
			return nil, fmt.Errorf("%s (%s): %w", spec.Name, alt, err)
		}
	}

	return nil, &NotFoundError{Target: spec.Name, Timeout: timeout}
}

// resolveAll returns every handle matching the spec's first alternative.
// It does not wait and does not fall back on an empty result: zero matches
// is meaningful data (no cart rows yet), not transient absence.
func resolveAll(p Page, spec LocatorSpec) ([]Handle, error) {
	if len(spec.Alternatives) == 0 {
		return nil, fmt.Errorf("%s: empty locator spec", spec.Name)
	}
	handles, err := p.FindAll(spec.Alternatives[0])
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", spec.Name, spec.Alternatives[0], err)
	}
	return handles, nil
}
