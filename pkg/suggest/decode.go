package suggest

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/go-faster/errors"
)

// DecodeResponse extracts a Raw suggestion from model output. It tolerates
// markdown code fences, surrounding prose and an optional "columnMapping"
// wrapper object. Null and non-string values are ignored.
func DecodeResponse(text string) (Raw, error) {
	body := strings.TrimSpace(text)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return nil, ErrUnusable
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body[start:end+1]), &obj); err != nil {
		return nil, errors.Wrap(ErrUnusable, err.Error())
	}
	if inner, ok := obj["columnMapping"]; ok {
		obj = nil
		if err := json.Unmarshal(inner, &obj); err != nil || obj == nil {
			return nil, ErrUnusable
		}
	}

	raw := make(Raw, len(obj))
	for k, v := range obj {
		if string(bytes.TrimSpace(v)) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			raw[k] = s
		}
	}
	return raw, nil
}
