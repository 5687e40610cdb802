package main

import (
	"fmt"
)

// fakeHandle is an in-memory Handle whose subtree is keyed by locator query.
type fakeHandle struct {
	text    string
	textErr error
	attrs   map[string]string
	kids    map[string][]*fakeHandle
	frame   *fakePage

	clicks   int
	typed    []string
	scrolled bool

	clickErr error
	typeErr  error
	onClick  func()
}

func (h *fakeHandle) Text() (string, error) {
	return h.text, h.textErr
}

func (h *fakeHandle) Click() error {
	if h.clickErr != nil {
		return h.clickErr
	}
	h.clicks++
	if h.onClick != nil {
		h.onClick()
	}
	return nil
}

func (h *fakeHandle) Type(text string) error {
	if h.typeErr != nil {
		return h.typeErr
	}
	h.typed = append(h.typed, text)
	return nil
}

func (h *fakeHandle) Attribute(name string) (string, bool, error) {
	v, ok := h.attrs[name]
	return v, ok, nil
}

func (h *fakeHandle) ScrollIntoView() error {
	h.scrolled = true
	return nil
}

func (h *fakeHandle) FindOne(loc Locator) (Handle, error) {
	kids := h.kids[loc.Query]
	if len(kids) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, errNoMatch)
	}
	return kids[0], nil
}

func (h *fakeHandle) FindAll(loc Locator) ([]Handle, error) {
	return wrapFakes(h.kids[loc.Query]), nil
}

func (h *fakeHandle) Frame() (Page, error) {
	if h.frame == nil {
		return nil, fmt.Errorf("not a frame")
	}
	return h.frame, nil
}

// fakePage serves handles keyed by locator query. Hooks, when set, take
// priority so tests can script per-call behavior.
type fakePage struct {
	elems map[string][]*fakeHandle

	findOneHook func(loc Locator) (Handle, error)
	findAllHook func(loc Locator) ([]Handle, error)
}

func (p *fakePage) FindOne(loc Locator) (Handle, error) {
	if p.findOneHook != nil {
		return p.findOneHook(loc)
	}
	elems := p.elems[loc.Query]
	if len(elems) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, errNoMatch)
	}
	return elems[0], nil
}

func (p *fakePage) FindAll(loc Locator) ([]Handle, error) {
	if p.findAllHook != nil {
		return p.findAllHook(loc)
	}
	return wrapFakes(p.elems[loc.Query]), nil
}

func wrapFakes(fakes []*fakeHandle) []Handle {
	handles := make([]Handle, len(fakes))
	for i, f := range fakes {
		handles[i] = f
	}
	return handles
}

// productCard builds a catalog card with a name paragraph, a price paragraph
// and an add button.
func productCard(name, priceText string) *fakeHandle {
	return &fakeHandle{kids: map[string][]*fakeHandle{
		"p":      {{text: name}, {text: priceText}},
		"button": {{text: "Add"}},
	}}
}

// cartRow builds a two-cell cart table row.
func cartRow(name, priceText string) *fakeHandle {
	return &fakeHandle{kids: map[string][]*fakeHandle{
		"td": {{text: name}, {text: priceText}},
	}}
}

// testConfig returns defaults with every wait collapsed so polling paths run
// a single immediate attempt.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.FindTimeoutSeconds = 0
	cfg.PollIntervalMs = 1
	cfg.CartMaxAttempts = 5
	cfg.CartPollIntervalMs = 1
	cfg.AddIndicatorTimeoutMs = 0
	cfg.FrameTimeoutSeconds = 0
	cfg.SuccessTimeoutSeconds = 0
	cfg.TypePaceMs = 0
	return cfg
}
