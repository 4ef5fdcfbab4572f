package message

import (
	"sort"

	"golang.org/x/text/language"
)

// matchVariant resolves a locale-to-string map against a ranked
// preference list. Exact key hits win in preference order; when no key
// is an exact hit, BCP 47 matching picks the closest related variant
// (so a "nl" preference still finds an "nl-NL" variant). Returns
// ok=false when nothing matches with any confidence.
func matchVariant(variants map[string]string, preferred []string) (string, bool) {
	for _, p := range preferred {
		if text, ok := variants[p]; ok {
			return text, true
		}
	}

	// Deterministic supported-tag order regardless of map iteration.
	keys := make([]string, 0, len(variants))
	for k := range variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	supportedKeys := make([]string, 0, len(keys))
	supported := make([]language.Tag, 0, len(keys))
	for _, k := range keys {
		tag, err := language.Parse(k)
		if err != nil {
			continue
		}
		supportedKeys = append(supportedKeys, k)
		supported = append(supported, tag)
	}
	if len(supported) == 0 {
		return "", false
	}

	wanted := make([]language.Tag, 0, len(preferred))
	for _, p := range preferred {
		tag, err := language.Parse(p)
		if err != nil {
			continue
		}
		wanted = append(wanted, tag)
	}
	if len(wanted) == 0 {
		return "", false
	}

	matcher := language.NewMatcher(supported)
	_, index, confidence := matcher.Match(wanted...)
	if confidence == language.No {
		return "", false
	}
	return variants[supportedKeys[index]], true
}
