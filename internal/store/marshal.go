package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/constfold/internal/ir"
)

// marshalStrings stores a string list as canonical JSON. A nil list is
// stored as [].
func marshalStrings(ss []string) (string, error) {
	if ss == nil {
		ss = []string{}
	}
	data, err := ir.MarshalCanonical(ss)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

// unmarshalStrings parses a stored string list. Empty lists come back as
// empty, non-nil slices.
func unmarshalStrings(data string) ([]string, error) {
	ss := []string{}
	if data == "" {
		return ss, nil
	}
	if err := json.Unmarshal([]byte(data), &ss); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return ss, nil
}
