package analysis

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/spanstorm/internal/engine/span"
)

// labelKeys are the result fields that may carry the entity label, in
// order of preference.
var labelKeys = []string{"entity_group", "entity", "label"}

// DecodeEntities converts an NER or classification response into spans
// with the given origin.
func DecodeEntities(body []byte, origin span.Origin) ([]span.Span, error) {
	if err := checkBody(body); err != nil {
		return nil, err
	}

	results := gjson.GetBytes(body, "results")
	if !results.IsArray() {
		return nil, fmt.Errorf("%w: missing results array", ErrMalformedResponse)
	}

	var (
		spans []span.Span
		err   error
	)
	results.ForEach(func(key, r gjson.Result) bool {
		var s span.Span
		s, err = decodeEntity(r, origin)
		if err != nil {
			err = fmt.Errorf("result %d: %w", key.Int(), err)
			return false
		}
		spans = append(spans, s)
		return true
	})
	if err != nil {
		return nil, err
	}
	return spans, nil
}

func decodeEntity(r gjson.Result, origin span.Origin) (span.Span, error) {
	start, end := r.Get("start"), r.Get("end")
	if start.Type != gjson.Number || end.Type != gjson.Number {
		return span.Span{}, fmt.Errorf("%w: start and end must be numbers", ErrMalformedResponse)
	}

	var label string
	for _, k := range labelKeys {
		if v := r.Get(k); v.Exists() && v.String() != "" {
			label = v.String()
			break
		}
	}

	s := span.NewSpan(int(start.Int()), int(end.Int()), label, origin)
	if score := r.Get("score"); score.Type == gjson.Number {
		f := score.Float()
		s.Score = &f
	}
	if id := r.Get("id"); id.Exists() {
		s.ID = id.String()
	}

	if err := s.Validate(); err != nil {
		return span.Span{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return s, nil
}

// DecodeTranslation extracts the translated text.
func DecodeTranslation(body []byte) (string, error) {
	if err := checkBody(body); err != nil {
		return "", err
	}
	text := gjson.GetBytes(body, "text")
	if text.Type != gjson.String {
		return "", fmt.Errorf("%w: missing text", ErrMalformedResponse)
	}
	return text.String(), nil
}

// DecodeSupportedLanguages extracts the language codes the translation
// service accepts.
func DecodeSupportedLanguages(body []byte) ([]string, error) {
	if err := checkBody(body); err != nil {
		return nil, err
	}
	langs := gjson.GetBytes(body, "supported_languages")
	if !langs.IsArray() {
		return nil, fmt.Errorf("%w: missing supported_languages", ErrMalformedResponse)
	}
	var out []string
	for _, l := range langs.Array() {
		out = append(out, l.String())
	}
	return out, nil
}

// checkBody rejects invalid JSON and turns detail responses into a
// *ServiceError.
func checkBody(body []byte) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	detail := gjson.GetBytes(body, "detail")
	if !detail.Exists() {
		return nil
	}
	if detail.IsArray() {
		// Validation failures carry a list of {loc, msg, type} objects.
		var msgs []string
		for _, d := range detail.Array() {
			if m := d.Get("msg"); m.Exists() {
				msgs = append(msgs, m.String())
			} else {
				msgs = append(msgs, d.String())
			}
		}
		return &ServiceError{Detail: strings.Join(msgs, "; ")}
	}
	return &ServiceError{Detail: detail.String()}
}
