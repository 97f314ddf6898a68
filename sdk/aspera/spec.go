// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package aspera

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// DirectionReceive is the only direction ascp is driven in.
const DirectionReceive = "receive"

// PathPair is one file of a transfer. Destination is informational: ascp
// receives everything into the single destination root.
type PathPair struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
}

// TransferSpec is the archive's description of an Aspera transfer.
// Params holds every other top-level field, rendered as text.
type TransferSpec struct {
	Direction       string            `json:"direction,omitempty"`
	Paths           []PathPair        `json:"paths"`
	DestinationRoot string            `json:"destination_root,omitempty"`
	Params          map[string]string `json:"-"`

	// set when the decoded document had a direction key, even "" or null
	hasDirection bool
}

// HasDirection reports whether the spec names a direction at all.
func (ts *TransferSpec) HasDirection() bool {
	return ts.hasDirection || ts.Direction != ""
}

var reservedKeys = map[string]bool{
	"direction":        true,
	"paths":            true,
	"destination_root": true,
}

func (ts *TransferSpec) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("transfer spec is null")
	}

	var out TransferSpec
	if v, ok := raw["direction"]; ok {
		out.hasDirection = true
		if err := json.Unmarshal(v, &out.Direction); err != nil {
			return fmt.Errorf("direction: %w", err)
		}
	}
	if v, ok := raw["paths"]; ok {
		if err := json.Unmarshal(v, &out.Paths); err != nil {
			return fmt.Errorf("paths: %w", err)
		}
	}
	if v, ok := raw["destination_root"]; ok {
		var root *string
		if err := json.Unmarshal(v, &root); err != nil {
			return fmt.Errorf("destination_root: %w", err)
		}
		if root != nil {
			out.DestinationRoot = *root
		}
	}
	for k, v := range raw {
		if reservedKeys[k] {
			continue
		}
		s, ok := scalarText(v)
		if !ok {
			continue
		}
		if out.Params == nil {
			out.Params = map[string]string{}
		}
		out.Params[k] = s
	}
	*ts = out
	return nil
}

func (ts TransferSpec) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(ts.Params)+3)
	for k, v := range ts.Params {
		m[k] = v
	}
	if ts.HasDirection() {
		m["direction"] = ts.Direction
	}
	paths := ts.Paths
	if paths == nil {
		paths = []PathPair{}
	}
	m["paths"] = paths
	if ts.DestinationRoot != "" {
		m["destination_root"] = ts.DestinationRoot
	}
	return json.Marshal(m)
}

// scalarText renders a JSON scalar as ascp would expect it on the command
// line. null is dropped; objects and arrays keep their JSON text.
func scalarText(v json.RawMessage) (string, bool) {
	var x any
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&x); err != nil {
		return "", false
	}
	switch t := x.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		return string(bytes.TrimSpace(v)), true
	}
}

// Masked returns a copy of the spec safe to print: the transfer token is
// replaced.
func (ts *TransferSpec) Masked() *TransferSpec {
	out := *ts
	if _, ok := ts.Params["token"]; ok {
		out.Params = maps.Clone(ts.Params)
		out.Params["token"] = "****"
	}
	return &out
}

type specEnvelope struct {
	TransferSpecs []struct {
		TransferSpec *TransferSpec `json:"transfer_spec"`
	} `json:"transfer_specs"`
}

// DecodeTransferSpec decodes an archive response. Both a bare spec object
// and the Node API envelope {"transfer_specs":[{"transfer_spec":{...}}]}
// are accepted; with an envelope only the first spec is used.
func DecodeTransferSpec(body []byte) (*TransferSpec, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, err
	}
	if _, ok := top["transfer_specs"]; ok {
		var env specEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, err
		}
		if len(env.TransferSpecs) == 0 || env.TransferSpecs[0].TransferSpec == nil {
			return nil, fmt.Errorf("empty transfer_specs")
		}
		return env.TransferSpecs[0].TransferSpec, nil
	}
	var ts TransferSpec
	if err := json.Unmarshal(body, &ts); err != nil {
		return nil, err
	}
	return &ts, nil
}

// Validate checks the fields ascp cannot do without.
func (ts *TransferSpec) Validate() error {
	for i, p := range ts.Paths {
		if p.Source == "" {
			return fmt.Errorf("paths[%d]: missing source", i)
		}
	}
	return nil
}
