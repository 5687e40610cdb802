package main

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestPollUntil(t *testing.T) {
	t.Run("immediate success", func(t *testing.T) {
		calls := 0
		err := pollUntil(0, time.Millisecond, func() (bool, error) {
			calls++
			return true, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("condition evaluated %d times, want 1", calls)
		}
	})

	t.Run("zero timeout still evaluates once", func(t *testing.T) {
		calls := 0
		err := pollUntil(0, time.Millisecond, func() (bool, error) {
			calls++
			return false, nil
		})
		if !errors.Is(err, errWaitTimeout) {
			t.Fatalf("error = %v, want errWaitTimeout", err)
		}
		if calls != 1 {
			t.Errorf("condition evaluated %d times, want 1", calls)
		}
	})

	t.Run("succeeds on later attempt", func(t *testing.T) {
		calls := 0
		err := pollUntil(time.Second, time.Millisecond, func() (bool, error) {
			calls++
			return calls >= 3, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("condition evaluated %d times, want 3", calls)
		}
	})

	t.Run("condition error stops polling", func(t *testing.T) {
		boom := errors.New("boom")
		err := pollUntil(time.Second, time.Millisecond, func() (bool, error) {
			return false, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("error = %v, want %v", err, boom)
		}
	})
}

func TestResolve(t *testing.T) {
	target := &fakeHandle{text: "hit"}

	t.Run("first alternative", func(t *testing.T) {
		page := &fakePage{elems: map[string][]*fakeHandle{"#a": {target}}}
		spec := LocatorSpec{Name: "thing", Alternatives: []Locator{
			{ByCSS, "#a"},
			{ByCSS, "#b"},
		}}
		h, err := resolve(page, spec, 0, time.Millisecond)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, _ := h.Text(); got != "hit" {
			t.Errorf("resolved wrong handle, text = %q", got)
		}
	})

	t.Run("falls back to later alternative", func(t *testing.T) {
		page := &fakePage{elems: map[string][]*fakeHandle{"#b": {target}}}
		spec := LocatorSpec{Name: "thing", Alternatives: []Locator{
			{ByCSS, "#a"},
			{ByCSS, "#b"},
		}}
		h, err := resolve(page, spec, 0, time.Millisecond)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, _ := h.Text(); got != "hit" {
			t.Errorf("resolved wrong handle, text = %q", got)
		}
	})

	t.Run("every alternative probed even at zero timeout", func(t *testing.T) {
		var probed []string
		page := &fakePage{findOneHook: func(loc Locator) (Handle, error) {
			probed = append(probed, loc.Query)
			if loc.Query == "#c" {
				return target, nil
			}
			return nil, fmt.Errorf("%s: %w", loc, errNoMatch)
		}}
		spec := LocatorSpec{Name: "thing", Alternatives: []Locator{
			{ByCSS, "#a"},
			{ByCSS, "#b"},
			{ByCSS, "#c"},
		}}
		if _, err := resolve(page, spec, 0, time.Millisecond); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(probed) != 3 {
			t.Errorf("probed %v, want all three alternatives", probed)
		}
	})

	t.Run("not found after all alternatives", func(t *testing.T) {
		page := &fakePage{}
		spec := LocatorSpec{Name: "thing", Alternatives: []Locator{{ByCSS, "#a"}}}
		_, err := resolve(page, spec, 0, time.Millisecond)
		if !isNotFound(err) {
			t.Fatalf("error = %v, want NotFoundError", err)
		}
	})

	t.Run("driver error is not retried", func(t *testing.T) {
		boom := errors.New("session lost")
		calls := 0
		page := &fakePage{findOneHook: func(loc Locator) (Handle, error) {
			calls++
			return nil, boom
		}}
		spec := LocatorSpec{Name: "thing", Alternatives: []Locator{
			{ByCSS, "#a"},
			{ByCSS, "#b"},
		}}
		_, err := resolve(page, spec, time.Second, time.Millisecond)
		if !errors.Is(err, boom) {
			t.Fatalf("error = %v, want %v", err, boom)
		}
		if calls != 1 {
			t.Errorf("FindOne called %d times, want 1", calls)
		}
	})
}

func TestResolveAll(t *testing.T) {
	t.Run("empty result is not a fallback trigger", func(t *testing.T) {
		page := &fakePage{elems: map[string][]*fakeHandle{
			"#b": {{text: "decoy"}},
		}}
		spec := LocatorSpec{Name: "rows", Alternatives: []Locator{
			{ByCSS, "#a"},
			{ByCSS, "#b"},
		}}
		handles, err := resolveAll(page, spec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(handles) != 0 {
			t.Errorf("got %d handles from fallback alternative, want 0", len(handles))
		}
	})

	t.Run("returns all matches of first alternative", func(t *testing.T) {
		page := &fakePage{elems: map[string][]*fakeHandle{
			"#a": {{text: "one"}, {text: "two"}},
		}}
		spec := LocatorSpec{Name: "rows", Alternatives: []Locator{{ByCSS, "#a"}}}
		handles, err := resolveAll(page, spec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(handles) != 2 {
			t.Errorf("got %d handles, want 2", len(handles))
		}
	})

	t.Run("empty spec", func(t *testing.T) {
		if _, err := resolveAll(&fakePage{}, LocatorSpec{Name: "rows"}); err == nil {
			t.Fatal("want error for spec without alternatives")
		}
	})
}
