package utils

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"visitlog/models"
)

// Path values longer than this are truncated, not rejected.
const MaxPathLength = 1024

var titlePolicy = bluemonday.StrictPolicy()

// ValidateVisit checks a raw visit payload and produces a normalized input.
// It is a pure transformation: all rule violations are collected so the
// client sees every failed field at once, not just the first. Header-derived
// fallbacks for referrer/userAgent must be resolved by the caller before
// validation.
func ValidateVisit(raw map[string]any) (models.VisitInput, []string, bool) {
	var in models.VisitInput
	var errs []string

	if id, ok := stringish(raw["postId"]); ok && id != "" {
		in.PostID = id
	} else {
		errs = append(errs, "postId must be a non-empty string")
	}

	if p, ok := raw["path"].(string); ok && p != "" {
		if len(p) > MaxPathLength {
			// Back off to a rune boundary so the cut never leaves a
			// partial UTF-8 sequence in the stored path.
			cut := MaxPathLength
			for cut > 0 && !utf8.RuneStart(p[cut]) {
				cut--
			}
			p = p[:cut]
		}
		in.Path = p
	} else {
		errs = append(errs, "path must be a non-empty string")
	}

	if t, ok := raw["postTitle"].(string); ok {
		// Titles come from untrusted front-end code; strip any markup.
		t = strings.TrimSpace(titlePolicy.Sanitize(t))
		if t != "" {
			in.PostTitle = t
		} else {
			errs = append(errs, "postTitle must be a non-empty string")
		}
	} else {
		errs = append(errs, "postTitle must be a non-empty string")
	}

	if r, ok := raw["referrer"].(string); ok && r != "" {
		in.Referrer = r
	}
	if ua, ok := raw["userAgent"].(string); ok && ua != "" {
		in.UserAgent = ua
	}

	return in, errs, len(errs) == 0
}

// stringish accepts strings and JSON numbers; numeric post ids are stringified.
func stringish(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	}
	return "", false
}
