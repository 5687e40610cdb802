package main

import (
	"fmt"

	"go.uber.org/zap"
)

// Category is the routing decision derived from the temperature reading.
type Category int

const (
	CategoryNone Category = iota
	CategoryMoisturizers
	CategorySunscreens
)

func (c Category) String() string {
	switch c {
	case CategoryMoisturizers:
		return "moisturizers"
	case CategorySunscreens:
		return "sunscreens"
	default:
		return "none"
	}
}

// routeCategory maps a temperature to the catalog to open. Pure and total:
// below 19 buys moisturizers, above 34 buys sunscreens, and the 19..34 band
// inclusive means nothing to buy.
func routeCategory(tempC int) Category {
	switch {
	case tempC < 19:
		return CategoryMoisturizers
	case tempC > 34:
		return CategorySunscreens
	default:
		return CategoryNone
	}
}

// homePage reads the temperature signal and opens category listings.
type homePage struct {
	page Page
	cfg  *Config
	log  *zap.Logger
}

func newHomePage(page Page, cfg *Config, log *zap.Logger) *homePage {
	return &homePage{page: page, cfg: cfg, log: log}
}

func (h *homePage) temperatureSpec() LocatorSpec {
	return LocatorSpec{
		Name: "temperature display",
		Alternatives: []Locator{
			{ByCSS, h.cfg.Selectors.Temperature},
			{ByXPath, `//*[@id="temperature"]`},
		},
	}
}

func (h *homePage) categorySpec(cat Category) LocatorSpec {
	switch cat {
	case CategoryMoisturizers:
		return LocatorSpec{
			Name: "moisturizers button",
			Alternatives: []Locator{
				{ByXPath, h.cfg.Selectors.Moisturizers},
				{ByXPath, `//a[contains(@href, 'moisturizer')]`},
			},
		}
	default:
		return LocatorSpec{
			Name: "sunscreens button",
			Alternatives: []Locator{
				{ByXPath, h.cfg.Selectors.Sunscreens},
				{ByXPath, `//a[contains(@href, 'sunscreen')]`},
			},
		}
	}
}

// readTemperature resolves the temperature display and parses its reading.
// A parse failure is fatal: the signal is static for the session, so
// re-reading cannot fix a malformed value.
func (h *homePage) readTemperature() (int, error) {
	handle, err := resolve(h.page, h.temperatureSpec(), h.cfg.findTimeout(), h.cfg.pollInterval())
	if err != nil {
		return 0, err
	}

	raw, err := handle.Text()
	if err != nil {
		return 0, fmt.Errorf("read temperature text: %w", err)
	}

	tempC, err := parseTemperature(raw)
	if err != nil {
		return 0, err
	}

	h.log.Info("temperature read", zap.Int("celsius", tempC), zap.String("raw", raw))
	return tempC, nil
}

// openCategory clicks through to the listing for cat. Calling it with
// CategoryNone is a programming error surfaced as such.
func (h *homePage) openCategory(cat Category) error {
	if cat == CategoryNone {
		return fmt.Errorf("no category listing to open for %s", cat)
	}

	button, err := resolve(h.page, h.categorySpec(cat), h.cfg.findTimeout(), h.cfg.pollInterval())
	if err != nil {
		return err
	}
	if err := button.Click(); err != nil {
		return fmt.Errorf("open %s listing: %w", cat, err)
	}

	h.log.Info("category opened", zap.Stringer("category", cat))
	return nil
}
