package rotate

import "encoding/json"

// Container carries a secret payload as a typed part S plus every
// field the payload has that S does not model. Unknown fields survive
// a parse/serialize round trip untouched, so a rotator that only knows
// about user and password cannot destroy the host and port some other
// tool stored next to them.
//
// A field never appears in both parts: adding a field to S removes it
// from Extra on the next parse, and on serialization the typed fields
// win.
type Container[S any] struct {
	Data  S
	Extra map[string]json.RawMessage
}

func (c *Container[S]) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &c.Data); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	// The set of keys S models is whatever Data serializes to, which
	// respects its json tags without any reflection of our own.
	typed, err := json.Marshal(c.Data)
	if err != nil {
		return err
	}
	var typedKeys map[string]json.RawMessage
	if err := json.Unmarshal(typed, &typedKeys); err != nil {
		return err
	}

	for key := range typedKeys {
		delete(all, key)
	}
	if len(all) == 0 {
		all = nil
	}
	c.Extra = all
	return nil
}

func (c Container[S]) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(c.Data)
	if err != nil {
		return nil, err
	}

	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(typed, &merged); err != nil {
		return nil, err
	}
	for key, value := range c.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}
