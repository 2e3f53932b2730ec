package vector

import (
	"math"
	"testing"
)

func TestCosine_IdenticalVectors(t *testing.T) {
	v := []float32{0.5, -1.2, 3.4}
	if got := Cosine(v, v); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected 1, got %g", got)
	}
}

func TestCosine_OppositeVectors(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}
	if got := Cosine(a, b); math.Abs(got+1) > 1e-9 {
		t.Errorf("expected -1, got %g", got)
	}
}

func TestCosine_OrthogonalVectors(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := Cosine(a, b); got != 0 {
		t.Errorf("expected 0, got %g", got)
	}
}

func TestCosine_ZeroNorm(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}

	if got := Cosine(a, b); got != 0 {
		t.Errorf("zero query norm: expected 0, got %g", got)
	}
	if got := Cosine(b, a); got != 0 {
		t.Errorf("zero candidate norm: expected 0, got %g", got)
	}
	if got := Cosine(a, a); got != 0 {
		t.Errorf("both zero: expected 0, got %g", got)
	}
}

func TestCosine_ScaleInvariant(t *testing.T) {
	a := []float32{1, 2, 3}
	scaled := []float32{10, 20, 30}
	if got := Cosine(a, scaled); math.Abs(got-1) > 1e-6 {
		t.Errorf("expected 1 for scaled vector, got %g", got)
	}
}

func TestNorm(t *testing.T) {
	if got := Norm([]float32{3, 4}); math.Abs(got-5) > 1e-9 {
		t.Errorf("expected 5, got %g", got)
	}
	if got := Norm(nil); got != 0 {
		t.Errorf("expected 0 for empty vector, got %g", got)
	}
}
