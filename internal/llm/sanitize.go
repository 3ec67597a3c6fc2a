package llm

import (
	"encoding/json"
	"fmt"
)

// DropNullFields removes top-level keys whose value is null or an empty string.
// Models often emit them for absent optionals, which would otherwise fail
// type checks during validation. Returns the cleaned document and the dropped keys.
func DropNullFields(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k)
		case string:
			if t == "" {
				delete(m, k)
				dropped = append(dropped, k)
			}
		}
	}
	if len(dropped) == 0 {
		return raw, nil, nil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, fmt.Errorf("sanitize: encode: %w", err)
	}
	return b, dropped, nil
}
