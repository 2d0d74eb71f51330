package datasets

import "testing"

func TestFromHistory(t *testing.T) {
	d := FromHistory([]float64{0, -0.69, -0.5, -1.38})
	if len(d) != 4 {
		t.Fatalf("expected 4 epochs, got %d", len(d))
	}
	if !d[0] || !d[1] || d[2] || !d[3] {
		t.Errorf("unexpected improvements: %v", d)
	}
	if d.Improved() != 3 {
		t.Errorf("expected 3 improved epochs, got %d", d.Improved())
	}
}

func TestFromHistoryEmpty(t *testing.T) {
	d := FromHistory(nil)
	if d == nil || len(d) != 0 {
		t.Errorf("expected an empty, initialized dataset: %v", d)
	}
}
