package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeEnvelope раскладывает ответ бэкенда в out. Бэкенд отвечает по-разному:
// сырым значением, {success, data} или {success, <поле>}. fields - имена полей,
// в которых может лежать полезная нагрузка, проверяются после "data"
func decodeEnvelope(raw []byte, out any, fields ...string) error {
	payload, err := unwrap(raw, fields...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

func unwrap(raw []byte, fields ...string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("null"), nil
	}
	if trimmed[0] != '{' {
		return trimmed, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("backend: decode response: %w", err)
	}

	successRaw, enveloped := obj["success"]
	if !enveloped {
		return trimmed, nil
	}

	var success bool
	if err := json.Unmarshal(successRaw, &success); err != nil {
		return nil, fmt.Errorf("backend: decode success flag: %w", err)
	}
	if !success {
		return nil, &BackendError{Message: failureMessage(obj)}
	}

	for _, name := range append([]string{"data"}, fields...) {
		if v, ok := obj[name]; ok {
			return v, nil
		}
	}
	return trimmed, nil
}

func failureMessage(obj map[string]json.RawMessage) string {
	for _, name := range []string{"message", "error", "errors"} {
		v, ok := obj[name]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			return s
		}
		return string(v)
	}
	return "request failed"
}
