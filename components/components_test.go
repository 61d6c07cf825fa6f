package components

import (
	"testing"

	"github.com/google/uuid"

	"github.com/pthm-cable/arbor/growth"
)

func TestSomaSnapshot(t *testing.T) {
	soma := Soma{
		ID:               uuid.New(),
		Position:         growth.NewPosition(1, 2, 3),
		Speed:            100,
		Threshold:        0.4,
		ActivationEnergy: 0.7,
	}

	snap := soma.Snapshot()
	if snap.ID != soma.ID || snap.Position != soma.Position || snap.Speed != soma.Speed {
		t.Errorf("identity mismatch: %+v", snap)
	}
	if snap.Threshold != 0.4 || snap.ActivationEnergy != 0.7 {
		t.Errorf("electrical state mismatch: threshold=%v activation=%v", snap.Threshold, snap.ActivationEnergy)
	}
}

func TestActivityFiredWithin(t *testing.T) {
	tests := []struct {
		name      string
		lastFired float32
		now       float32
		window    float32
		want      bool
	}{
		{"never fired", -1, 10, 100, false},
		{"fired now", 10, 10, 0, true},
		{"inside window", 9.5, 10, 1, true},
		{"outside window", 8, 10, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Activity{LastFired: tt.lastFired}
			if got := a.FiredWithin(tt.now, tt.window); got != tt.want {
				t.Errorf("FiredWithin(%v, %v) = %v, want %v", tt.now, tt.window, got, tt.want)
			}
		})
	}
}
