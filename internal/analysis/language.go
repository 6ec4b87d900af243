package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/spanstorm/internal/engine/segment"
	"github.com/dshills/spanstorm/internal/engine/span"
)

// floresCodes maps language names to FLORES-200 codes.
var floresCodes = map[string]string{
	"Czech":     "ces_Latn",
	"Danish":    "dan_Latn",
	"Dutch":     "nld_Latn",
	"English":   "eng_Latn",
	"German":    "deu_Latn",
	"Hebrew":    "heb_Hebr",
	"Hungarian": "hun_Latn",
	"Polish":    "pol_Latn",
	"Ukrainian": "ukr_Cyrl",
}

// FloresCode returns the FLORES code for a language name.
// Matching ignores case.
func FloresCode(language string) (string, error) {
	for name, code := range floresCodes {
		if strings.EqualFold(name, language) {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
}

// Languages returns the supported language names in sorted order.
func Languages() []string {
	names := make([]string, 0, len(floresCodes))
	for name := range floresCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SourceLanguage picks the first supported code starting with the
// ISO 639-3 code of a detected language, e.g. "deu" -> "deu_Latn".
func SourceLanguage(supported []string, iso6393 string) (string, bool) {
	prefix := strings.ToLower(iso6393)
	if prefix == "" {
		return "", false
	}
	for _, code := range supported {
		if strings.HasPrefix(code, prefix) {
			return code, true
		}
	}
	return "", false
}

// ApplyTranslation stores text as the lang translation of segment id and
// returns the updated collection. The input is not modified.
func ApplyTranslation(segments []span.Segment, id, lang, text string) ([]span.Segment, error) {
	i := span.IndexOf(segments, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", segment.ErrSegmentNotFound, id)
	}
	out := span.CloneSegments(segments)
	if out[i].Translations == nil {
		out[i].Translations = make(map[string]string)
	}
	out[i].Translations[lang] = text
	return out, nil
}
