package mathx

import "testing"

func TestClampSwapsBounds(t *testing.T) {
	if got := Clamp(5, 10, 0); got != 5 {
		t.Fatalf("Clamp(5,10,0)=%d", got)
	}
	if got := Clamp(-1.5, 0, 1); got != 0 {
		t.Fatalf("Clamp(-1.5,0,1)=%v", got)
	}
	if got := Clamp(uint32(70000), 0, 0xFFFF); got != 0xFFFF {
		t.Fatalf("Clamp upper=%d", got)
	}
}

func TestRoundDiv(t *testing.T) {
	tests := []struct {
		a, b, rnd uint32
	}{
		{10, 4, 3},
		{9, 4, 2},
		{8, 4, 2},
		{1, 0, 0},
	}
	for _, tc := range tests {
		if got := RoundDiv(tc.a, tc.b); got != tc.rnd {
			t.Errorf("RoundDiv(%d,%d)=%d want %d", tc.a, tc.b, got, tc.rnd)
		}
	}
}

func TestLerpInverse(t *testing.T) {
	for _, v := range []float64{0.4, 1.1, 2.9} {
		f := InvLerp(0.4, 2.9, v)
		if got := Lerp(0.4, 2.9, f); RelErr(got, v) > 1e-12 {
			t.Fatalf("round trip %v -> %v", v, got)
		}
	}
	if InvLerp(1.0, 1.0, 3.0) != 0 {
		t.Fatal("empty span should give 0")
	}
}
