package ui

import "testing"

func TestUIPanel_Layout(t *testing.T) {
	p := NewUIPanel("Flock", 10, 10, 280, 600)

	p.AddSection("Rules")
	speed := p.AddSlider("Speed", 0, 1, 0.2)
	force := p.AddSlider("Max Force", 0, 1, 0.05)
	p.EndSection()
	p.AddSection("Display")
	trails := p.AddCheckbox("Trails", true)
	clicks := 0
	respawn := p.AddButton("Respawn", func() { clicks++ })
	p.EndSection()

	if len(p.Widgets) != 4 || len(p.Labels) != 4 {
		t.Fatalf("got %d widgets / %d labels; want 4", len(p.Widgets), len(p.Labels))
	}
	if got := p.sections[1]; got.StartIndex != 2 || got.EndIndex != 4 {
		t.Errorf("second section = %+v; want [2, 4)", got)
	}
	if force.Y <= speed.Y {
		t.Errorf("widgets should stack downwards: %v then %v", speed.Y, force.Y)
	}
	if trails.Y <= force.Y || respawn.Y <= trails.Y {
		t.Errorf("widgets out of order: %v, %v, %v", force.Y, trails.Y, respawn.Y)
	}

	respawn.OnClick()
	if clicks != 1 {
		t.Errorf("OnClick ran %d times; want 1", clicks)
	}
}

func TestCheckbox_Toggle(t *testing.T) {
	c := NewCheckbox(0, 0, "Trails", false)
	var seen []bool
	c.OnToggle = func(v bool) { seen = append(seen, v) }

	c.Toggle()
	c.Toggle()

	if c.Value {
		t.Error("two toggles should restore the value")
	}
	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Errorf("OnToggle saw %v; want [true false]", seen)
	}
}
