package loop

import (
	"github.com/ironsheep/slide-qa/internal/critique"
	"github.com/ironsheep/slide-qa/internal/linter"
)

// State is a step of the review loop.
type State int

const (
	StateInit State = iota
	StateLintGate
	StateRender
	StateAnnotateAndCritique
	StateReport
	StateAutoPatch
	StateDone
	StateAborted
)

var stateNames = map[State]string{
	StateInit:                "init",
	StateLintGate:            "lint_gate",
	StateRender:              "render",
	StateAnnotateAndCritique: "annotate_and_critique",
	StateReport:              "report",
	StateAutoPatch:           "auto_patch",
	StateDone:                "done",
	StateAborted:             "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText lets State appear by name in JSON results.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RunState is the record of one run.
type RunState struct {
	RunID     string `json:"run_id"`
	Iteration int    `json:"iteration"`
	State     State  `json:"state"`

	// LintPassed is the outcome of the latest lint gate.
	LintPassed bool `json:"lint_passed"`

	// VisualPassed is true when every slide of the latest iteration received
	// a PASS critique.
	VisualPassed bool `json:"visual_passed"`

	OutputDir    string `json:"output_dir"`
	Candidate    string `json:"candidate"`
	ShapeMapPath string `json:"shape_map_path,omitempty"`
	RenderDir    string `json:"render_dir,omitempty"`
	ReportPath   string `json:"report_path,omitempty"`

	Issues    []linter.Issue      `json:"issues,omitempty"`
	Critiques []critique.Critique `json:"critiques,omitempty"`
	Marked    []string            `json:"marked,omitempty"`

	// Error describes why the run was aborted.
	Error string `json:"error,omitempty"`
}

func (r *RunState) enter(s State) {
	r.State = s
}
