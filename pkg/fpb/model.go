package fpb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ProcessModel is a complete VDI 3682 process description. It is produced
// by an upstream parser (or imported as JSON) and consumed read-only by
// the layout engine. Errors and Warnings carry parser diagnostics through
// to the UI; the layout engine ignores them.
type ProcessModel struct {
	Title              string              `json:"title" bson:"title"`
	SystemLimits       []SystemLimit       `json:"system_limits,omitempty" bson:"system_limits,omitempty"`
	States             []State             `json:"states,omitempty" bson:"states,omitempty"`
	ProcessOperators   []ProcessOperator   `json:"process_operators,omitempty" bson:"process_operators,omitempty"`
	TechnicalResources []TechnicalResource `json:"technical_resources,omitempty" bson:"technical_resources,omitempty"`
	Flows              []Flow              `json:"flows,omitempty" bson:"flows,omitempty"`
	Usages             []Usage             `json:"usages,omitempty" bson:"usages,omitempty"`
	Errors             []string            `json:"errors,omitempty" bson:"errors,omitempty"`
	Warnings           []string            `json:"warnings,omitempty" bson:"warnings,omitempty"`
}

// ElementCount returns the number of nodes in the model (states, operators
// and resources; edges and system limits are not counted).
func (m *ProcessModel) ElementCount() int {
	return len(m.States) + len(m.ProcessOperators) + len(m.TechnicalResources)
}

// EdgeCount returns the number of edges in the model (flows plus usages).
func (m *ProcessModel) EdgeCount() int {
	return len(m.Flows) + len(m.Usages)
}

// IsEmpty reports whether the model contains no elements at all.
func (m *ProcessModel) IsEmpty() bool {
	return m.ElementCount() == 0
}

// MarshalModel serializes a model to pretty-printed JSON bytes.
func MarshalModel(m *ProcessModel) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// UnmarshalModel deserializes JSON bytes into a ProcessModel.
func UnmarshalModel(data []byte) (*ProcessModel, error) {
	var m ProcessModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	return &m, nil
}

// ReadModel decodes a ProcessModel from r.
func ReadModel(r io.Reader) (*ProcessModel, error) {
	var m ProcessModel
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &m, nil
}

// ReadModelFile reads a ProcessModel from a JSON file.
func ReadModelFile(path string) (*ProcessModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalModel(data)
}

// WriteModelFile writes a ProcessModel to a JSON file.
func WriteModelFile(m *ProcessModel, path string) error {
	data, err := MarshalModel(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
