package enum

import (
	"encoding/json"
	"fmt"
	"strings"
)

// lookup returns the index of name in names, ignoring case.
func lookup(names []string, name string) (int, bool) {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i, true
		}
	}
	return 0, false
}

// unmarshalName accepts either the string name or the numeric value.
func unmarshalName(data []byte, names []string, typeName string) (int, error) {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return 0, err
		}
		if i < 0 || i >= len(names) {
			return 0, fmt.Errorf("invalid %s %d", typeName, i)
		}
		return i, nil
	}
	i, ok := lookup(names, str)
	if !ok {
		return 0, fmt.Errorf("invalid %s %q", typeName, str)
	}
	return i, nil
}

// scanInt converts a database value into an int.
func scanInt(value interface{}) int {
	switch v := value.(type) {
	case int64:
		return int(v)
	case int32:
		return int(v)
	case int:
		return v
	}
	return 0
}
