package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/slayout/internal/abi"
)

// marshalType converts an AbiType to JSON TEXT for storage.
// HTML escaping is disabled so stored text matches the CLI's JSON output.
func marshalType(t abi.AbiType) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t); err != nil {
		return "", fmt.Errorf("marshal type: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func unmarshalType(data string) (abi.AbiType, error) {
	var t abi.AbiType
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return abi.AbiType{}, fmt.Errorf("unmarshal type: %w", err)
	}
	return t, nil
}
