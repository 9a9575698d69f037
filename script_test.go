package bagdrop

import "testing"

func TestLoadScript(t *testing.T) {
	data := []byte(`{
		"steps": [
			{"action": "screenshot", "label": "initial"},
			{"action": "click", "x": 100, "y": 200},
			{"action": "wait", "frames": 3},
			{"action": "click-node", "label": "button"},
			{"action": "wait-until", "label": "idle", "frames": 600}
		]
	}`)

	runner, err := LoadScript(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(runner.steps))
	}
	if runner.steps[1].Action != "click" || runner.steps[1].X != 100 || runner.steps[1].Y != 200 {
		t.Error("step 1 mismatch")
	}
	if runner.steps[4].Frames != 600 {
		t.Error("step 4 mismatch")
	}
}

func TestLoadScript_Invalid(t *testing.T) {
	for _, data := range []string{`not json`, `{"steps": []}`, `{"steps": [{"action": "drag"}]}`} {
		if _, err := LoadScript([]byte(data)); err == nil {
			t.Errorf("expected error for %s", data)
		}
	}
}

func TestScriptStep_Click(t *testing.T) {
	s := NewScene()
	s.SetMousePolling(false)
	btn := NewRect("button", 200, 200, ColorWhite)
	btn.Interactable = true
	clicks := 0
	btn.OnClick = func(ClickContext) { clicks++ }
	s.Root().AddChild(btn)

	runner, err := LoadScript([]byte(`{"steps": [{"action": "click", "x": 50, "y": 50}]}`))
	if err != nil {
		t.Fatal(err)
	}
	s.SetScriptRunner(runner)

	s.Update(0) // queue + press
	if runner.Done() {
		t.Error("runner should not be done while inject queue has events")
	}
	s.Update(0) // release
	s.Update(0)
	if !runner.Done() {
		t.Error("runner should be done after the queue drained")
	}
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}
}

func TestScriptStep_ClickNode(t *testing.T) {
	s := NewScene()
	btn := NewRect("button", 40, 20, ColorWhite)
	btn.SetPosition(100, 100)
	s.Root().AddChild(btn)

	runner, _ := LoadScript([]byte(`{"steps": [{"action": "click-node", "label": "button"}]}`))
	runner.step(s)
	if len(s.injectQueue) != 2 || s.injectQueue[0].x != 120 || s.injectQueue[0].y != 110 {
		t.Errorf("injectQueue = %+v, want press and release at (120,110)", s.injectQueue)
	}
}

func TestScriptStep_Wait(t *testing.T) {
	s := NewScene()
	runner, err := LoadScript([]byte(`{"steps": [
		{"action": "wait", "frames": 3},
		{"action": "screenshot", "label": "done"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		runner.step(s)
		if runner.Done() {
			t.Fatalf("done during wait frame %d", i)
		}
	}
	runner.step(s)
	if !runner.Done() {
		t.Error("runner should be done after screenshot step")
	}
	if len(s.screenshotQueue) != 1 || s.screenshotQueue[0] != "done" {
		t.Errorf("expected screenshot 'done', got %v", s.screenshotQueue)
	}
}

func TestScriptStep_WaitUntil(t *testing.T) {
	s := NewScene()
	runner, _ := LoadScript([]byte(`{"steps": [
		{"action": "wait-until", "label": "ready"},
		{"action": "screenshot", "label": "ready"}
	]}`))
	ready := false
	runner.SetCondition("ready", func() bool { return ready })

	for i := 0; i < 10; i++ {
		runner.step(s)
	}
	if len(s.screenshotQueue) != 0 {
		t.Fatal("screenshot taken before the condition held")
	}
	ready = true
	runner.step(s)
	if len(s.screenshotQueue) != 1 || !runner.Done() {
		t.Errorf("queue = %v, done = %v", s.screenshotQueue, runner.Done())
	}
}

func TestScriptStep_WaitUntilTimesOut(t *testing.T) {
	s := NewScene()
	runner, _ := LoadScript([]byte(`{"steps": [
		{"action": "wait-until", "label": "never", "frames": 3},
		{"action": "screenshot", "label": "late"}
	]}`))
	runner.SetCondition("never", func() bool { return false })

	runner.step(s) // starts waiting
	runner.step(s)
	runner.step(s)
	if len(s.screenshotQueue) != 0 {
		t.Fatal("timed out too early")
	}
	runner.step(s)
	if len(s.screenshotQueue) != 1 {
		t.Errorf("expected screenshot after timeout, got %v", s.screenshotQueue)
	}
}

func TestScriptStep_UnknownConditionSkips(t *testing.T) {
	s := NewScene()
	runner, _ := LoadScript([]byte(`{"steps": [{"action": "wait-until", "label": "nope"}]}`))
	runner.step(s)
	if !runner.Done() {
		t.Error("unknown conditions are skipped")
	}
}

func TestScriptRunnerWaitsForInjectQueue(t *testing.T) {
	s := NewScene()
	runner, _ := LoadScript([]byte(`{"steps": [
		{"action": "click", "x": 50, "y": 50},
		{"action": "screenshot", "label": "after"}
	]}`))

	runner.step(s)
	if len(s.injectQueue) != 2 {
		t.Fatalf("expected 2 events, got %d", len(s.injectQueue))
	}
	runner.step(s)
	if runner.cursor != 1 {
		t.Errorf("cursor should still be 1, got %d", runner.cursor)
	}

	s.injectQueue = s.injectQueue[:0]
	runner.step(s)
	if len(s.screenshotQueue) != 1 || s.screenshotQueue[0] != "after" {
		t.Errorf("expected screenshot 'after', got %v", s.screenshotQueue)
	}
	if !runner.Done() {
		t.Error("runner should be done")
	}
}

func TestFindNode(t *testing.T) {
	s := NewScene()
	a := NewContainer("a")
	b := NewRect("b", 1, 1, ColorWhite)
	a.AddChild(b)
	s.Root().AddChild(a)
	if s.FindNode("b") != b {
		t.Error("FindNode should find nested nodes")
	}
	if s.FindNode("missing") != nil {
		t.Error("FindNode should return nil for unknown names")
	}
}
