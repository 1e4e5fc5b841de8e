package usecases

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Workflow is the runner-style workflow document uc21 authors in the
// workspace.
type Workflow struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []WorkflowStep `yaml:"steps"`
}

// WorkflowStep either calls a tool with args or performs an action.
type WorkflowStep struct {
	ID     string         `yaml:"id"`
	Tool   string         `yaml:"tool,omitempty"`
	Args   map[string]any `yaml:"args,omitempty"`
	Action string         `yaml:"action,omitempty"`
	Prompt string         `yaml:"prompt,omitempty"`
}

func sampleWorkflow() Workflow {
	return Workflow{
		Name:        "uc21-workflow",
		Description: "Simulated OpenClaw-style workflow spec for ThinkCLI parity checks",
		Steps: []WorkflowStep{
			{ID: "gather_context", Tool: "workspace", Args: map[string]any{"action": "list", "path": ".", "recursive": false}},
			{ID: "audit_contract", Tool: "workspace", Args: map[string]any{"action": "read", "path": "AGENTS.md"}},
			{ID: "synthesize", Action: "chat_send", Prompt: "Summarize key constraints and propose next actions."},
		},
	}
}

// EncodeWorkflow renders w as YAML with two-space indentation.
func EncodeWorkflow(w Workflow) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(w); err != nil {
		return nil, fmt.Errorf("encode workflow: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseWorkflow decodes and checks a workflow document: it needs a name and
// at least one step, step ids must be unique, and each step names exactly
// one of tool or action.
func ParseWorkflow(data []byte) (Workflow, error) {
	var w Workflow
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&w); err != nil {
		return Workflow{}, fmt.Errorf("parse workflow: %w", err)
	}
	if w.Name == "" {
		return Workflow{}, fmt.Errorf("workflow has no name")
	}
	if len(w.Steps) == 0 {
		return Workflow{}, fmt.Errorf("workflow %s has no steps", w.Name)
	}
	seen := make(map[string]bool, len(w.Steps))
	for i, st := range w.Steps {
		if st.ID == "" {
			return Workflow{}, fmt.Errorf("step %d has no id", i+1)
		}
		if seen[st.ID] {
			return Workflow{}, fmt.Errorf("duplicate step id %q", st.ID)
		}
		seen[st.ID] = true
		if (st.Tool == "") == (st.Action == "") {
			return Workflow{}, fmt.Errorf("step %q must set exactly one of tool or action", st.ID)
		}
	}
	return w, nil
}
