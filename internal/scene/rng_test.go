package scene

import "testing"

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	for i := 0; i < 100; i++ {
		va, vb := a.Float64(), b.Float64()
		if va != vb {
			t.Fatalf("draw %d: streams diverged: %v != %v", i, va, vb)
		}
		if va < 0 || va >= 1 {
			t.Fatalf("draw %d: value %v outside [0,1)", i, va)
		}
	}
}

func TestRNGSeedsDiffer(t *testing.T) {
	a := NewRNG(1)
	b := NewRNG(2)
	same := true
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical streams")
	}
}

func TestRNGZeroSeedFallsBack(t *testing.T) {
	z := NewRNG(0)
	d := NewRNG(DefaultSeed)
	for i := 0; i < 10; i++ {
		if z.Float64() != d.Float64() {
			t.Fatal("zero seed should alias the default seed")
		}
	}
}

func TestRNGRange(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 100; i++ {
		v := r.Range(-5, 5)
		if v < -5 || v >= 5 {
			t.Fatalf("Range(-5,5) produced %v", v)
		}
	}
}

func TestRNGIntn(t *testing.T) {
	r := NewRNG(9)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		n := r.Intn(3)
		if n < 0 || n >= 3 {
			t.Fatalf("Intn(3) produced %d", n)
		}
		seen[n] = true
	}
	if len(seen) != 3 {
		t.Errorf("Intn(3) covered %d of 3 values over 200 draws", len(seen))
	}
	if r.Intn(0) != 0 {
		t.Error("Intn(0) should return 0")
	}
}

func TestEaseBoundaries(t *testing.T) {
	for _, e := range []EaseKind{EaseLinear, EaseIn, EaseOut, EaseInOut} {
		if got := e.Apply(0); got != 0 {
			t.Errorf("%v.Apply(0) = %v, want 0", e, got)
		}
		if got := e.Apply(1); got != 1 {
			t.Errorf("%v.Apply(1) = %v, want 1", e, got)
		}
	}
}

func TestEaseMidpoints(t *testing.T) {
	cases := []struct {
		ease EaseKind
		t    float64
		want float64
	}{
		{EaseLinear, 0.5, 0.5},
		{EaseIn, 0.5, 0.25},
		{EaseOut, 0.5, 0.75},
		{EaseInOut, 0.25, 0.125},
		{EaseInOut, 0.75, 0.875},
	}
	for _, c := range cases {
		if got := c.ease.Apply(c.t); got != c.want {
			t.Errorf("%v.Apply(%v) = %v, want %v", c.ease, c.t, got, c.want)
		}
	}
}
