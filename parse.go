package main

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	digitRun  = regexp.MustCompile(`\d+`)
	signedRun = regexp.MustCompile(`-?\d+`)
)

// parsePrice extracts the first contiguous digit run from a price field.
// Thousands separators are stripped first so "1,299 Rs" parses as 1299.
// A field with no digits is a ParseError, never a zero.
func parsePrice(field, raw string) (int, error) {
	m := digitRun.FindString(strings.ReplaceAll(raw, ",", ""))
	if m == "" {
		return 0, &ParseError{Field: field, Raw: raw}
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, &ParseError{Field: field, Raw: raw}
	}
	return n, nil
}

// parseTemperature extracts the integer reading from text like "26°C".
// The sign is kept so sub-zero winters route to moisturizers.
func parseTemperature(raw string) (int, error) {
	m := signedRun.FindString(raw)
	if m == "" {
		return 0, &ParseError{Field: "temperature", Raw: raw}
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, &ParseError{Field: "temperature", Raw: raw}
	}
	return n, nil
}
