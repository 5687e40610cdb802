package main

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PaymentState tracks progress through the payment submission machine.
type PaymentState int

const (
	payIdle PaymentState = iota
	payFrameDetecting
	payFrameEntered
	payFieldsFilled
	paySubmitted
	paySucceeded
	payFailed
)

func (s PaymentState) String() string {
	switch s {
	case payIdle:
		return "idle"
	case payFrameDetecting:
		return "frame-detecting"
	case payFrameEntered:
		return "frame-entered"
	case payFieldsFilled:
		return "fields-filled"
	case paySubmitted:
		return "submitted"
	case paySucceeded:
		return "succeeded"
	case payFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// paymentForm fills and submits the embedded payment provider form. The
// machine is not re-entrant: any failure past frame entry means the caller
// must start a fresh paymentForm, because a partially filled third-party
// form is not trusted to resume safely.
type paymentForm struct {
	page  Page
	cfg   *Config
	log   *zap.Logger
	state PaymentState
}

func newPaymentForm(page Page, cfg *Config, log *zap.Logger) *paymentForm {
	return &paymentForm{page: page, cfg: cfg, log: log, state: payIdle}
}

func (p *paymentForm) State() PaymentState {
	return p.state
}

var iframeLoc = Locator{ByCSS, "iframe"}

func emailSpec() LocatorSpec {
	return LocatorSpec{
		Name: "email field",
		Alternatives: []Locator{
			{ByCSS, `input[type='email']`},
			{ByCSS, `input[name='email']`},
			{ByCSS, `#email`},
		},
	}
}

func cardNumberSpec() LocatorSpec {
	return LocatorSpec{
		Name: "card number field",
		Alternatives: []Locator{
			{ByCSS, `input[name='cardnumber']`},
			{ByCSS, `input[placeholder*='card']`},
			{ByCSS, `#card-number`},
		},
	}
}

func expirySpec() LocatorSpec {
	return LocatorSpec{
		Name: "expiry field",
		Alternatives: []Locator{
			{ByCSS, `input[name='exp-date']`},
			{ByCSS, `input[placeholder*='MM']`},
			{ByCSS, `#card-expiry`},
		},
	}
}

func cvcSpec() LocatorSpec {
	return LocatorSpec{
		Name: "cvc field",
		Alternatives: []Locator{
			{ByCSS, `input[name='cvc']`},
			{ByCSS, `input[placeholder*='CVC']`},
			{ByCSS, `#card-cvc`},
		},
	}
}

func postalSpec() LocatorSpec {
	return LocatorSpec{
		Name: "postal field",
		Alternatives: []Locator{
			{ByCSS, `input[name='postal']`},
			{ByCSS, `input[placeholder*='ZIP']`},
			{ByCSS, `#billing-zip`},
		},
	}
}

func submitSpec() LocatorSpec {
	return LocatorSpec{
		Name: "submit button",
		Alternatives: []Locator{
			{ByXPath, `//button[contains(., 'Pay')]`},
			{ByCSS, `button[type='submit']`},
		},
	}
}

func successSpec() LocatorSpec {
	return LocatorSpec{
		Name: "payment success indicator",
		Alternatives: []Locator{
			{ByXPath, `//*[contains(text(), 'PAYMENT SUCCESS')]`},
			{ByXPath, `//*[contains(text(), 'Payment successful')]`},
			{ByXPath, `//*[contains(text(), 'success') or contains(text(), 'Success')]`},
		},
	}
}

// run drives the machine from idle to a terminal state. Frame references
// stay local to each phase so no frame context outlives the operation that
// needed it; the submit phase re-detects the frame because its identity may
// have been lost since the fill.
func (p *paymentForm) run() error {
	if p.state != payIdle {
		return fmt.Errorf("payment machine already ran (state %s); start a fresh attempt", p.state)
	}

	p.state = payFrameDetecting
	frame, err := p.detectFrame()
	if err != nil {
		p.state = payFailed
		return err
	}
	p.state = payFrameEntered
	p.log.Info("payment frame entered")

	if err := p.fillFields(frame); err != nil {
		p.state = payFailed
		return err
	}
	p.state = payFieldsFilled
	p.log.Info("payment fields filled")

	if err := p.submit(); err != nil {
		p.state = payFailed
		return err
	}
	p.state = paySubmitted
	p.log.Info("payment submitted")

	if err := p.waitForSuccess(); err != nil {
		p.state = payFailed
		return err
	}
	p.state = paySucceeded
	p.log.Info("payment confirmed")
	return nil
}

// detectFrame scans the embedded frames for the first one exposing a
// recognized payment field, polling because the provider injects its frame
// asynchronously after the pay click.
func (p *paymentForm) detectFrame() (Page, error) {
	var frame Page
	scanned := 0

	err := pollUntil(p.cfg.frameTimeout(), p.cfg.pollInterval(), func() (bool, error) {
		handles, err := p.page.FindAll(iframeLoc)
		if err != nil {
			return false, err
		}
		scanned = len(handles)

		for _, h := range handles {
			fp, err := h.Frame()
			if err != nil {
				continue
			}
			if p.hasPaymentField(fp) {
				frame = fp
				return true, nil
			}
		}
		return false, nil
	})
	if errors.Is(err, errWaitTimeout) {
		return nil, &FrameNotFoundError{Scanned: scanned, Timeout: p.cfg.frameTimeout()}
	}
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// hasPaymentField probes a frame for any recognized payment field without
// waiting.
func (p *paymentForm) hasPaymentField(frame Page) bool {
	for _, spec := range []LocatorSpec{emailSpec(), cardNumberSpec()} {
		for _, alt := range spec.Alternatives {
			if _, err := frame.FindOne(alt); err == nil {
				return true
			}
		}
	}
	return false
}

func (p *paymentForm) fillFields(frame Page) error {
	card := p.cfg.Card
	pace := p.cfg.typePace()

	if err := p.fillField(frame, emailSpec(), card.Email); err != nil {
		return err
	}

	// The provider's client-side formatter rejects the card number pasted as
	// one block, so it goes in fixed-size chunks with pacing between them.
	number, err := resolve(frame, cardNumberSpec(), p.cfg.findTimeout(), p.cfg.pollInterval())
	if err != nil {
		return err
	}
	if err := number.Click(); err != nil {
		return fmt.Errorf("focus card number field: %w", err)
	}
	for _, chunk := range chunkString(card.Number, 4) {
		if err := number.Type(chunk); err != nil {
			return fmt.Errorf("type card number: %w", err)
		}
		time.Sleep(pace)
	}

	// Expiry goes as month then year, with a pause so the field's own
	// formatter can insert its separator between the sub-writes.
	expiry, err := resolve(frame, expirySpec(), p.cfg.findTimeout(), p.cfg.pollInterval())
	if err != nil {
		return err
	}
	if err := expiry.Click(); err != nil {
		return fmt.Errorf("focus expiry field: %w", err)
	}
	mm, yy := splitExpiry(card.Expiry)
	if err := expiry.Type(mm); err != nil {
		return fmt.Errorf("type expiry month: %w", err)
	}
	time.Sleep(pace)
	if err := expiry.Type(yy); err != nil {
		return fmt.Errorf("type expiry year: %w", err)
	}
	time.Sleep(pace)

	// Clicking the CVC field advances focus out of the expiry field
	// explicitly before more input lands.
	if err := p.fillField(frame, cvcSpec(), card.CVC); err != nil {
		return err
	}

	// The postal field only exists for some locales; absence is fine.
	postal, err := resolve(frame, postalSpec(), 0, p.cfg.pollInterval())
	if err != nil {
		if isNotFound(err) {
			p.log.Debug("no postal field present, skipping")
			return nil
		}
		return err
	}
	if err := postal.Click(); err != nil {
		return fmt.Errorf("focus postal field: %w", err)
	}
	if err := postal.Type(card.Postal); err != nil {
		return fmt.Errorf("type postal code: %w", err)
	}
	return nil
}

func (p *paymentForm) fillField(frame Page, spec LocatorSpec, value string) error {
	h, err := resolve(frame, spec, p.cfg.findTimeout(), p.cfg.pollInterval())
	if err != nil {
		return err
	}
	if err := h.Click(); err != nil {
		return fmt.Errorf("focus %s: %w", spec.Name, err)
	}
	if err := h.Type(value); err != nil {
		return fmt.Errorf("type into %s: %w", spec.Name, err)
	}
	return nil
}

// submit re-enters the payment frame and triggers the submit control. The
// frame reference never leaves this method, so the top-level page is back in
// control when it returns, error or not.
func (p *paymentForm) submit() error {
	frame, err := p.detectFrame()
	if err != nil {
		return err
	}

	button, err := resolve(frame, submitSpec(), p.cfg.findTimeout(), p.cfg.pollInterval())
	if err != nil {
		return err
	}
	if err := button.Click(); err != nil {
		return fmt.Errorf("click submit: %w", err)
	}
	return nil
}

// waitForSuccess polls the top-level page for a success indicator. A timeout
// is a definite failure, never an ambiguous outcome.
func (p *paymentForm) waitForSuccess() error {
	spec := successSpec()
	err := pollUntil(p.cfg.successTimeout(), p.cfg.pollInterval(), func() (bool, error) {
		for _, alt := range spec.Alternatives {
			if _, err := p.page.FindOne(alt); err == nil {
				return true, nil
			}
		}
		return false, nil
	})
	if errors.Is(err, errWaitTimeout) {
		return &SubmitTimeoutError{Timeout: p.cfg.successTimeout()}
	}
	return err
}

func chunkString(s string, size int) []string {
	if size <= 0 {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var chunks []string
	for len(s) > size {
		chunks = append(chunks, s[:size])
		s = s[size:]
	}
	if len(s) > 0 {
		chunks = append(chunks, s)
	}
	return chunks
}

// splitExpiry splits an MMYY value into its two sub-writes. Values with a
// separator ("12/30") are normalized first.
func splitExpiry(expiry string) (string, string) {
	digits := make([]byte, 0, len(expiry))
	for i := 0; i < len(expiry); i++ {
		if expiry[i] >= '0' && expiry[i] <= '9' {
			digits = append(digits, expiry[i])
		}
	}
	if len(digits) < 4 {
		return string(digits), ""
	}
	return string(digits[:2]), string(digits[2:4])
}
