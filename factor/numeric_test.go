package factor

import (
	"math/big"
	"testing"
)

func TestGCDWithZero(t *testing.T) {
	for _, a := range []int64{0, 1, 7, 360, 99991} {
		got := GCD(big.NewInt(a), big.NewInt(0))
		if got.Cmp(big.NewInt(a)) != 0 {
			t.Errorf("GCD(%d, 0): expected %d, got %s", a, a, got)
		}
	}
}

func TestGCDKnownValues(t *testing.T) {
	cases := []struct {
		a, b, want int64
	}{
		{12, 18, 6},
		{18, 12, 6},
		{17, 5, 1},
		{100, 100, 100},
		{270, 192, 6},
		{1071, 462, 21},
	}

	for _, c := range cases {
		got := GCD(big.NewInt(c.a), big.NewInt(c.b))
		if got.Cmp(big.NewInt(c.want)) != 0 {
			t.Errorf("GCD(%d, %d): expected %d, got %s", c.a, c.b, c.want, got)
		}
	}
}

func TestGCDEuclideanRecurrence(t *testing.T) {
	// gcd(a, b) must equal gcd(b, a mod b) for b > 0.
	samples := []struct{ a, b int64 }{
		{360, 48}, {99991, 360}, {2, 3}, {1000003, 999983}, {48, 360},
	}

	for _, s := range samples {
		a := big.NewInt(s.a)
		b := big.NewInt(s.b)
		left := GCD(a, b)
		right := GCD(b, new(big.Int).Mod(a, b))
		if left.Cmp(right) != 0 {
			t.Errorf("gcd(%d,%d)=%s but gcd(b, a mod b)=%s", s.a, s.b, left, right)
		}
	}
}

func TestGCDDoesNotMutateArguments(t *testing.T) {
	a := big.NewInt(360)
	b := big.NewInt(48)
	GCD(a, b)

	if a.Cmp(big.NewInt(360)) != 0 || b.Cmp(big.NewInt(48)) != 0 {
		t.Errorf("GCD mutated its arguments: a=%s b=%s", a, b)
	}
}

func TestModPowZeroExponent(t *testing.T) {
	// a^0 mod m = 1 mod m, including the degenerate m = 1.
	for _, c := range []struct{ a, m int64 }{
		{2, 7}, {0, 5}, {99, 1}, {123456, 789},
	} {
		got := ModPow(big.NewInt(c.a), big.NewInt(0), big.NewInt(c.m))
		want := new(big.Int).Mod(big.NewInt(1), big.NewInt(c.m))
		if got.Cmp(want) != 0 {
			t.Errorf("ModPow(%d, 0, %d): expected %s, got %s", c.a, c.m, want, got)
		}
	}
}

func TestModPowKnownValues(t *testing.T) {
	cases := []struct {
		base, exp, mod, want int64
	}{
		{2, 10, 1000, 24},
		{3, 4, 5, 1},
		{7, 3, 11, 2},  // 343 mod 11
		{10, 9, 6, 4},  // base reduced first
		{2, 100, 1, 0}, // everything collapses mod 1
		{5, 1, 13, 5},
	}

	for _, c := range cases {
		got := ModPow(big.NewInt(c.base), big.NewInt(c.exp), big.NewInt(c.mod))
		if got.Cmp(big.NewInt(c.want)) != 0 {
			t.Errorf("ModPow(%d, %d, %d): expected %d, got %s", c.base, c.exp, c.mod, c.want, got)
		}
	}
}

func TestModPowMatchesBigExp(t *testing.T) {
	// Cross-check against the standard library on larger operands.
	base, _ := new(big.Int).SetString("98765432109876543210", 10)
	exp := big.NewInt(65537)
	mod, _ := new(big.Int).SetString("10002200057", 10)

	got := ModPow(base, exp, mod)
	want := new(big.Int).Exp(base, exp, mod)
	if got.Cmp(want) != 0 {
		t.Errorf("ModPow mismatch: expected %s, got %s", want, got)
	}
}

func TestRandRangeBounds(t *testing.T) {
	min := big.NewInt(2)
	max := big.NewInt(10)

	for i := 0; i < 200; i++ {
		v, err := RandRange(min, max)
		if err != nil {
			t.Fatalf("RandRange failed: %v", err)
		}
		if v.Cmp(min) < 0 || v.Cmp(max) >= 0 {
			t.Fatalf("RandRange(%s, %s) returned out-of-range value %s", min, max, v)
		}
	}
}

func TestRandRangeWideRange(t *testing.T) {
	// A range far beyond 64 bits must not wrap or truncate.
	min := new(big.Int).Lsh(big.NewInt(1), 100)
	max := new(big.Int).Lsh(big.NewInt(1), 200)

	for i := 0; i < 20; i++ {
		v, err := RandRange(min, max)
		if err != nil {
			t.Fatalf("RandRange failed: %v", err)
		}
		if v.Cmp(min) < 0 || v.Cmp(max) >= 0 {
			t.Fatalf("Wide RandRange returned out-of-range value %s", v)
		}
	}
}

func TestRandRangeInvalid(t *testing.T) {
	if _, err := RandRange(big.NewInt(5), big.NewInt(5)); err == nil {
		t.Error("Expected error for empty range [5, 5)")
	}
	if _, err := RandRange(big.NewInt(9), big.NewInt(3)); err == nil {
		t.Error("Expected error for inverted range [9, 3)")
	}
}
