// Package codec provides the Connect codec used by giftsplit's RPC service.
package codec

import (
	"encoding/json"
	"fmt"
)

// JSON is a Connect codec for plain Go structs.
// It registers under the name "json" and so replaces Connect's protojson
// codec, which only accepts generated proto messages.
type JSON struct{}

// Name implements connect.Codec.
func (JSON) Name() string { return "json" }

// Marshal implements connect.Codec.
func (JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal implements connect.Codec. An empty body leaves v unchanged.
func (JSON) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return nil
}
