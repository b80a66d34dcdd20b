package validation

import (
	"fmt"
	"strings"

	"aigate/internal/trend"
)

// checkBusiness cross-checks the narrative against the trend direction. Inconsistencies are
// warnings only: the data stays renderable even when the prose needs regenerating.
func checkBusiness(direction trend.Direction, narrative string) StageResult {
	res := StageResult{Valid: true}
	if strings.TrimSpace(narrative) == "" {
		return res
	}

	if found := trend.FindKeywords(narrative, trend.ForbiddenKeywords(direction)); len(found) > 0 {
		res.Valid = false
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"Narrative contradicts the data: the trend is %s but the text says %s",
			direction, quoteAll(found)))
	}

	if expected := trend.ExpectedKeywords(direction); len(expected) > 0 && !trend.ContainsAny(narrative, expected) {
		res.Valid = false
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"Narrative does not describe the %s trend shown by the data", direction))
	}

	return res
}

func quoteAll(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = fmt.Sprintf("%q", w)
	}
	return strings.Join(quoted, ", ")
}
