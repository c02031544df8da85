package evaluation

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparseable reports that no JSON object could be recovered from a
// judge response, even after normalization.
var ErrUnparseable = errors.New("no JSON object found in evaluation response")

// Python-style literals that show up in judge responses despite the
// prompt asking for JSON.
var (
	pyTruePattern  = regexp.MustCompile(`\bTrue\b`)
	pyFalsePattern = regexp.MustCompile(`\bFalse\b`)
	pyNonePattern  = regexp.MustCompile(`\bNone\b`)
)

// ParseEvaluation recovers a judgment object from a raw judge response.
// Judges wrap their JSON in prose, use single quotes, or emit Python
// literals; all of that is normalized before parsing. The returned map is
// never empty on success.
func ParseEvaluation(raw string) (map[string]any, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: %q", ErrUnparseable, truncateForError(raw))
	}

	cleaned := normalizeJSON(raw[start : end+1])

	var judgments map[string]any
	if err := json.Unmarshal([]byte(cleaned), &judgments); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnparseable, err)
	}
	if len(judgments) == 0 {
		return nil, fmt.Errorf("%w: empty object", ErrUnparseable)
	}

	coerceStringBooleans(judgments)
	return judgments, nil
}

// normalizeJSON rewrites common judge mistakes into strict JSON: single
// quotes around keys and values, and Python True/False/None literals.
func normalizeJSON(s string) string {
	s = strings.ReplaceAll(s, "'", `"`)
	s = pyTruePattern.ReplaceAllString(s, "true")
	s = pyFalsePattern.ReplaceAllString(s, "false")
	s = pyNonePattern.ReplaceAllString(s, "null")
	return s
}

// coerceStringBooleans converts "true"/"false" string values to real
// booleans, in place. Judges sometimes quote the booleans they were asked
// to emit bare.
func coerceStringBooleans(judgments map[string]any) {
	for k, v := range judgments {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			judgments[k] = true
		case "false":
			judgments[k] = false
		}
	}
}

func truncateForError(s string) string {
	const limit = 80
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
