package harness

import (
	"fmt"
	"strings"
)

// Message is one notification delivered to a player during a step.
type Message struct {
	Player string `json:"player"`
	Text   string `json:"text"`
}

// StepResult records what happened when a step ran.
type StepResult struct {
	Index    int       `json:"index"`
	Action   string    `json:"action"`
	Actor    string    `json:"actor"`
	Shop     string    `json:"shop,omitempty"`
	Code     string    `json:"code"`
	Expect   string    `json:"expect"`
	Detail   string    `json:"detail,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass is true when every step produced its expected code and every
	// assertion held.
	Pass bool `json:"pass"`

	// Steps holds one entry per executed step, in order.
	Steps []StepResult `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Transcript renders the steps and the messages each produced, one line
// per entry. The rendering is stable across runs.
func (r *Result) Transcript() []string {
	lines := make([]string, 0, len(r.Steps)*2)
	for _, st := range r.Steps {
		line := fmt.Sprintf("%d. %s %s", st.Index+1, st.Actor, st.Action)
		if st.Shop != "" {
			line += " " + st.Shop
		}
		line += " -> " + st.Code
		if st.Detail != "" {
			line += " (" + st.Detail + ")"
		}
		lines = append(lines, line)
		for _, m := range st.Messages {
			lines = append(lines, fmt.Sprintf("   [%s] %s", m.Player, m.Text))
		}
	}
	return lines
}

// Render returns the transcript document compared against golden files.
func (r *Result) Render() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", r.Name)
	for _, line := range r.Transcript() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if r.Pass {
		b.WriteString("result: pass\n")
	} else {
		b.WriteString("result: fail\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	return []byte(b.String())
}
