package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/symgen/internal/ir"
)

// marshalDeps converts node ids to canonical JSON TEXT for storage.
func marshalDeps(deps []int) (string, error) {
	arr := make(ir.Array, len(deps))
	for i, d := range deps {
		arr[i] = ir.Int(d)
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal deps: %w", err)
	}
	return string(data), nil
}

// unmarshalDeps parses a deps column. The result is never nil.
func unmarshalDeps(s string) ([]int, error) {
	deps := []int{}
	if err := json.Unmarshal([]byte(s), &deps); err != nil {
		return nil, fmt.Errorf("unmarshal deps: %w", err)
	}
	return deps, nil
}
