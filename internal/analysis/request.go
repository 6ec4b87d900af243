package analysis

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// EntityRequest builds the body for the NER and classification endpoints.
func EntityRequest(text string) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "text", text)
	if err != nil {
		return nil, fmt.Errorf("building entity request: %w", err)
	}
	return body, nil
}

// TranslateRequest builds the body for the translation endpoint.
// srcLang and tgtLang are FLORES codes.
func TranslateRequest(text, srcLang, tgtLang string) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	for _, kv := range [][2]string{{"text", text}, {"src_lang", srcLang}, {"tgt_lang", tgtLang}} {
		body, err = sjson.SetBytes(body, kv[0], kv[1])
		if err != nil {
			return nil, fmt.Errorf("building translate request: %w", err)
		}
	}
	return body, nil
}
