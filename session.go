package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// Session owns the browser for one run. It is handed to every component but
// never held by any of them past their own call.
type Session struct {
	cfg      *Config
	log      *zap.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// newSession launches a browser and opens a stealth page on it. System
// Chrome is preferred when present; otherwise rod downloads a Chromium.
func newSession(cfg *Config, log *zap.Logger) (*Session, error) {
	// Leakless deadlocks on Windows, see go-rod/rod#853.
	useLeakless := runtime.GOOS != "windows"

	l := launcher.New().
		Leakless(useLeakless).
		Headless(cfg.Headless)

	if chromePath, ok := launcher.LookPath(); ok {
		l = l.Bin(chromePath)
		log.Debug("using system chrome", zap.String("path", chromePath))
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to create stealth page: %w", err)
	}

	log.Info("browser session ready", zap.Bool("headless", cfg.Headless))

	return &Session{
		cfg:      cfg,
		log:      log,
		launcher: l,
		browser:  browser,
		page:     page,
	}, nil
}

func (s *Session) Close() {
	if s.page != nil {
		s.page.Close()
	}
	if s.browser != nil {
		s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	s.log.Info("browser session closed")
}

// Navigate loads url and waits for the load event. Every handle resolved
// before this call is invalid afterwards.
func (s *Session) Navigate(url string) error {
	if err := s.page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := s.page.WaitLoad(); err != nil {
		return fmt.Errorf("page failed to load %s: %w", url, err)
	}
	s.log.Debug("page loaded", zap.String("url", s.CurrentURL()))
	return nil
}

func (s *Session) CurrentURL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// ScrollToBottom forces lazily rendered content into the document before a
// full-page read.
func (s *Session) ScrollToBottom() error {
	_, err := s.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

// Capture writes a PNG screenshot named after tag into the capture directory
// and returns its path. Diagnostics only; nothing in the flow reads it back.
func (s *Session) Capture(tag string) (string, error) {
	data, err := s.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return "", fmt.Errorf("screenshot failed: %w", err)
	}

	if err := os.MkdirAll(s.cfg.CaptureDir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.CaptureDir, fmt.Sprintf("%s-%s.png", tag, time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Page exposes the top-level document to the core components.
func (s *Session) Page() Page {
	return rodPage{p: s.page}
}

// rodPage adapts a rod page (top-level or frame) to the Page primitives.
// Lookups never wait: bounded waiting is the locator layer's job.
type rodPage struct {
	p *rod.Page
}

func (rp rodPage) FindOne(loc Locator) (Handle, error) {
	p := rp.p.Sleeper(rod.NotFoundSleeper)

	var el *rod.Element
	var err error
	switch loc.Strategy {
	case ByXPath:
		el, err = p.ElementX(loc.Query)
	default:
		el, err = p.Element(loc.Query)
	}
	if err != nil {
		return nil, classifyFindErr(loc, err)
	}
	return rodHandle{el: el}, nil
}

func (rp rodPage) FindAll(loc Locator) ([]Handle, error) {
	var els rod.Elements
	var err error
	switch loc.Strategy {
	case ByXPath:
		els, err = rp.p.ElementsX(loc.Query)
	default:
		els, err = rp.p.Elements(loc.Query)
	}
	if err != nil {
		return nil, fmt.Errorf("find all %s: %w", loc, err)
	}
	return wrapElements(els), nil
}

// rodHandle adapts one rod element to the Handle primitives.
type rodHandle struct {
	el *rod.Element
}

func (rh rodHandle) Text() (string, error) {
	return rh.el.Text()
}

func (rh rodHandle) Click() error {
	return rh.el.Click(proto.InputMouseButtonLeft, 1)
}

func (rh rodHandle) Type(text string) error {
	return rh.el.Input(text)
}

func (rh rodHandle) Attribute(name string) (string, bool, error) {
	v, err := rh.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (rh rodHandle) ScrollIntoView() error {
	return rh.el.ScrollIntoView()
}

func (rh rodHandle) FindOne(loc Locator) (Handle, error) {
	el := rh.el.Sleeper(rod.NotFoundSleeper)

	var sub *rod.Element
	var err error
	switch loc.Strategy {
	case ByXPath:
		sub, err = el.ElementX(loc.Query)
	default:
		sub, err = el.Element(loc.Query)
	}
	if err != nil {
		return nil, classifyFindErr(loc, err)
	}
	return rodHandle{el: sub}, nil
}

func (rh rodHandle) FindAll(loc Locator) ([]Handle, error) {
	var els rod.Elements
	var err error
	switch loc.Strategy {
	case ByXPath:
		els, err = rh.el.ElementsX(loc.Query)
	default:
		els, err = rh.el.Elements(loc.Query)
	}
	if err != nil {
		return nil, fmt.Errorf("find all %s: %w", loc, err)
	}
	return wrapElements(els), nil
}

func (rh rodHandle) Frame() (Page, error) {
	fp, err := rh.el.Frame()
	if err != nil {
		return nil, fmt.Errorf("enter frame: %w", err)
	}
	return rodPage{p: fp}, nil
}

func wrapElements(els rod.Elements) []Handle {
	handles := make([]Handle, 0, len(els))
	for _, el := range els {
		handles = append(handles, rodHandle{el: el})
	}
	return handles
}

func classifyFindErr(loc Locator, err error) error {
	var notFound *rod.ElementNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("%s: %w", loc, errNoMatch)
	}
	return fmt.Errorf("find %s: %w", loc, err)
}
