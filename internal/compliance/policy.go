package compliance

import (
	"fmt"
	"strings"

	"github.com/docveil/docveil/internal/pii"
)

// Regime is a named compliance policy with its own inclusion predicate over
// detected types.
type Regime string

const (
	GDPR  Regime = "GDPR"
	HIPAA Regime = "HIPAA"
	DPDP  Regime = "DPDP"
)

// ParseRegime resolves a regime from its name, case-insensitively.
func ParseRegime(name string) (Regime, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "GDPR":
		return GDPR, nil
	case "HIPAA":
		return HIPAA, nil
	case "DPDP":
		return DPDP, nil
	}
	return "", fmt.Errorf("unknown compliance regime: %q", name)
}

// RegimeFromNumber maps the client-facing selector (1/2/3) to a regime. Any
// other value is a client error.
func RegimeFromNumber(num string) (Regime, error) {
	switch strings.TrimSpace(num) {
	case "1":
		return GDPR, nil
	case "2":
		return HIPAA, nil
	case "3":
		return DPDP, nil
	}
	return "", fmt.Errorf("invalid compliance number %q: use 1 (GDPR), 2 (HIPAA), or 3 (DPDP)", num)
}

// Includes reports whether the regime subjects the given type to mandatory
// redaction. GDPR covers all personal data; HIPAA focuses on health-related
// identifiers; DPDP covers everything except URLs, which are kept for
// business purposes.
func (r Regime) Includes(t pii.Type) bool {
	switch r {
	case GDPR:
		return true
	case HIPAA:
		return t == pii.TypeSSN || t == pii.TypePhone || t == pii.TypeName || t == pii.TypeEmail
	case DPDP:
		return t != pii.TypeURL
	}
	return false
}

// Filter returns the subset of detected items the regime requires to be
// redacted. It never mutates the detection result. The default pipeline
// redacts the full detection set and uses this filter for reporting; strict
// mode makes it gate redaction itself.
func Filter(result pii.Result, regime Regime) pii.Result {
	var items []pii.Item
	for _, item := range result.Items {
		if regime.Includes(item.Type) {
			items = append(items, item)
		}
	}
	return pii.Result{Items: items}
}
