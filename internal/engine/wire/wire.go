// Package wire decodes backend payloads, REST and push alike, into domain
// records. The backend speaks snake_case JSON with loosely typed numerics;
// everything leaving this package is a typed model value.
package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Envelope is one push-channel frame: a data member holding either a single
// resource object or an array of them.
type Envelope struct {
	Data json.RawMessage `json:"data"`
}

// typeProbe extracts just the resource type discriminant.
type typeProbe struct {
	Type string `json:"type"`
}

// DecodeEnvelope splits a raw frame into its resource type tag and the flat
// payload list, preserving arrival order. The tag is taken from the first
// payload, matching the channel contract that one envelope carries one
// resource type.
func DecodeEnvelope(raw []byte) (string, []json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("envelope decode: %w", err)
	}
	if len(env.Data) == 0 {
		return "", nil, fmt.Errorf("envelope has no data member")
	}

	var payloads []json.RawMessage
	if env.Data[0] == '[' {
		if err := json.Unmarshal(env.Data, &payloads); err != nil {
			return "", nil, fmt.Errorf("envelope data array decode: %w", err)
		}
	} else {
		payloads = []json.RawMessage{env.Data}
	}
	if len(payloads) == 0 {
		return "", nil, fmt.Errorf("envelope data array is empty")
	}

	var probe typeProbe
	if err := json.Unmarshal(payloads[0], &probe); err != nil {
		return "", nil, fmt.Errorf("envelope type probe: %w", err)
	}
	return probe.Type, payloads, nil
}

// flexFloat tolerates the backend sending numerics as strings or numbers.
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.Value, f.Set = n, true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.Value, f.Set = n, true
	return nil
}

// flexTime accepts RFC3339 strings and unix-second numbers.
type flexTime struct {
	Value time.Time
	Set   bool
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "" {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		t.Value, t.Set = parsed, true
		return nil
	}
	var unix int64
	if err := json.Unmarshal(b, &unix); err != nil {
		return err
	}
	t.Value, t.Set = time.Unix(unix, 0), true
	return nil
}
