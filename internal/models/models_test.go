package models

import "testing"

func TestLineDataTimesAndObservers(t *testing.T) {
	d := NewLineData()
	var notified []TimeFrameIndex
	d.AddObserver(func(t TimeFrameIndex) { notified = append(notified, t) })

	d.AddAtTime(9, Line{{X: 1}}, true)
	d.AddAtTime(2, Line{{X: 2}}, false)
	d.AddAtTime(9, Line{{X: 3}}, true)

	if times := d.Times(); len(times) != 2 || times[0] != 2 || times[1] != 9 {
		t.Errorf("times: %v", times)
	}
	if d.NumLines() != 3 || len(d.AtTime(9)) != 2 {
		t.Errorf("expected 3 lines with 2 at t=9, got %d and %d", d.NumLines(), len(d.AtTime(9)))
	}
	if len(notified) != 2 {
		t.Errorf("expected 2 notifications, got %v", notified)
	}

	d.ClearAtTime(9, true)
	d.ClearAtTime(100, true)
	if len(d.AtTime(9)) != 0 || len(notified) != 3 {
		t.Errorf("clear: lines %v, notifications %v", d.AtTime(9), notified)
	}
}

func TestMaskDataAndHelpers(t *testing.T) {
	m := NewMaskData()
	m.AddAtTime(4, []PixelPoint{{X: 1, Y: 2}})
	m.AddAtTime(1, []PixelPoint{{X: 3, Y: 4}})
	if times := m.Times(); len(times) != 2 || times[0] != 1 || m.Len() != 2 {
		t.Errorf("times: %v", times)
	}
	if p := (PixelPoint{X: 3, Y: 4}).ToPoint(); p != (Point{X: 3, Y: 4}) {
		t.Errorf("ToPoint: %v", p)
	}
	if Distance(Point{}, Point{X: 3, Y: 4}) != 5 {
		t.Error("Distance")
	}
	if (ImageSize{Width: 0, Height: 5}).Area() != 0 || (ImageSize{Width: 2, Height: 5}).Area() != 10 {
		t.Error("Area")
	}
	var nilLine Line
	if nilLine.Clone() != nil {
		t.Error("clone of nil should be nil")
	}
}
