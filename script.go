package bagdrop

import (
	"encoding/json"
	"fmt"
	"os"
)

// scriptStep is a single action in a demo script.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

type script struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner plays injected clicks, waits and screenshots across frames so
// a demo can run unattended. Attach it with Scene.SetScriptRunner.
//
// Actions:
//
//	click       press and release at (x, y)
//	click-node  click the center of the first node named label
//	wait        idle for frames frames
//	wait-until  idle until the condition named label holds, or frames elapse
//	screenshot  capture the next drawn frame as label
type ScriptRunner struct {
	steps      []scriptStep
	cursor     int
	waitCount  int
	until      func() bool
	untilLimit int // frames left for until; 0 waits forever
	conditions map[string]func() bool
	done       bool
}

// LoadScript parses a JSON script.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(jsonData, &sc); err != nil {
		return nil, fmt.Errorf("bagdrop: parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("bagdrop: parse script: no steps")
	}
	for i, st := range sc.Steps {
		switch st.Action {
		case "click", "click-node", "wait", "wait-until", "screenshot":
		default:
			return nil, fmt.Errorf("bagdrop: parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps, conditions: make(map[string]func() bool)}, nil
}

// SetCondition registers a named predicate for wait-until steps.
func (r *ScriptRunner) SetCondition(name string, fn func() bool) {
	r.conditions[name] = fn
}

// SetScriptRunner attaches a runner. Its steps advance from Scene.Update,
// before input is processed.
func (s *Scene) SetScriptRunner(runner *ScriptRunner) {
	s.script = runner
}

// Done reports whether every step has been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame.
func (r *ScriptRunner) step(s *Scene) {
	if r.done {
		return
	}
	if len(s.injectQueue) > 0 {
		return
	}
	if r.until != nil {
		if !r.until() && !r.untilExpired() {
			return
		}
		r.until = nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		s.Screenshot(st.Label)
	case "click":
		s.InjectClick(st.X, st.Y)
	case "click-node":
		if n := s.FindNode(st.Label); n != nil {
			s.ClickNode(n)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "[bagdrop] script: no node named %q\n", st.Label)
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "wait-until":
		fn, ok := r.conditions[st.Label]
		if !ok {
			_, _ = fmt.Fprintf(os.Stderr, "[bagdrop] script: unknown condition %q\n", st.Label)
			break
		}
		r.until = fn
		r.untilLimit = st.Frames
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && r.until == nil && len(s.injectQueue) == 0 {
		r.done = true
	}
}

func (r *ScriptRunner) untilExpired() bool {
	if r.untilLimit <= 0 {
		return false
	}
	r.untilLimit--
	return r.untilLimit == 0
}

// FindNode returns the first node named name in depth-first order, or nil.
func (s *Scene) FindNode(name string) *Node {
	var found *Node
	s.root.Walk(func(n *Node) bool {
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}
