// Package evaluation turns a judge model's freeform response into
// attribute scores: rubric template handling, tolerant JSON parsing, and
// score assignment.
package evaluation

import (
	"fmt"
	"regexp"
	"strings"
)

// Sentinel marks the rubric values the judge is asked to fill in. The
// template is authored as JSON with this token in value position, e.g.
//
//	{"interesting": LOGPROB_TRUE, "useful": LOGPROB_TRUE}
const Sentinel = "LOGPROB_TRUE"

// quotedKeyPattern matches `"name":` key patterns in a rubric template.
// Used to recover attribute names when the judge's response is not
// parseable as JSON.
var quotedKeyPattern = regexp.MustCompile(`"([^"\n]+)"\s*:`)

// SubstituteSentinel rewrites a rubric template into valid JSON the judge
// can mirror, replacing every sentinel with the literal true.
func SubstituteSentinel(template string) string {
	return strings.ReplaceAll(template, Sentinel, "true")
}

// ExtractTemplateAttributes returns the attribute names a rubric template
// declares, in authoring order, without duplicates.
func ExtractTemplateAttributes(template string) []string {
	matches := quotedKeyPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// BuildEvaluationMessages constructs the system and user messages for a
// judgment call. The system message carries the evaluator preamble and the
// rubric with sentinels already substituted; the user message carries the
// candidate text.
func BuildEvaluationMessages(evaluationPrompt, template, candidate string) (system string, user string) {
	system = fmt.Sprintf("%s\n\nCriteria template:\n%s", evaluationPrompt, SubstituteSentinel(template))
	user = fmt.Sprintf("Text to evaluate:\n%s\n\nRespond with the JSON object only.", candidate)
	return system, user
}
