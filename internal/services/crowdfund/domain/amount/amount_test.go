package amount

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0", want: "0"},
		{in: " 42 ", want: "42"},
		{in: "-17", want: "-17"},
		{in: "170141183460469231731687303715884105727", want: "170141183460469231731687303715884105727"},
		{in: "-170141183460469231731687303715884105728", want: "-170141183460469231731687303715884105728"},
		{in: "170141183460469231731687303715884105728", wantErr: true},
		{in: "", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "1e3", wantErr: true},
		{in: "--1", wantErr: true},
		{in: "12a", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %s, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Fatalf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddSubOverflow(t *testing.T) {
	if _, err := Max().Add(New(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("Max+1 = %v, want overflow", err)
	}
	if _, err := Min().Sub(New(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("Min-1 = %v, want overflow", err)
	}
	got, err := Max().Sub(Max())
	if err != nil || !got.IsZero() {
		t.Fatalf("Max-Max = %s, %v", got, err)
	}
	if _, err := Min().Neg(); !errors.Is(err, ErrOverflow) {
		t.Fatalf("-Min = %v, want overflow", err)
	}
}

func TestMul(t *testing.T) {
	got, err := New(-6).Mul(New(7))
	if err != nil || !got.Equal(New(-42)) {
		t.Fatalf("-6*7 = %s, %v", got, err)
	}
	if _, err := Max().Mul(New(2)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("Max*2 = %v, want overflow", err)
	}
	if got := Max().SaturatingMul(New(100)); !got.Equal(Max()) {
		t.Fatalf("saturating Max*100 = %s", got)
	}
	if got := Max().SaturatingMul(New(-100)); !got.Equal(Min()) {
		t.Fatalf("saturating Max*-100 = %s", got)
	}
	if got := New(3).SaturatingMul(New(100)); !got.Equal(New(300)) {
		t.Fatalf("saturating 3*100 = %s", got)
	}
}

func TestQuoTruncatesTowardZero(t *testing.T) {
	tests := []struct {
		a, b, want int64
	}{
		{a: 7, b: 2, want: 3},
		{a: -7, b: 2, want: -3},
		{a: 7, b: -2, want: -3},
		{a: 12000, b: 100, want: 120},
		{a: 1, b: 3, want: 0},
	}
	for _, tt := range tests {
		got, err := New(tt.a).Quo(New(tt.b))
		if err != nil {
			t.Fatalf("%d/%d: %v", tt.a, tt.b, err)
		}
		if !got.Equal(New(tt.want)) {
			t.Fatalf("%d/%d = %s, want %d", tt.a, tt.b, got, tt.want)
		}
	}
	if _, err := New(1).Quo(Zero()); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("1/0 = %v, want division by zero", err)
	}
	if _, err := Min().Quo(New(-1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("Min/-1 = %v, want overflow", err)
	}
}

func TestComparisons(t *testing.T) {
	a, b := New(5), New(9)
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(New(5)) != 0 {
		t.Fatal("unexpected Cmp results")
	}
	if !a.LessThan(b) || b.LessThan(a) {
		t.Fatal("unexpected LessThan results")
	}
	if !b.GreaterThanOrEqual(a) || !a.GreaterThanOrEqual(New(5)) {
		t.Fatal("unexpected GreaterThanOrEqual results")
	}
	if !New(-1).IsNegative() || !New(1).IsPositive() || !Zero().IsZero() {
		t.Fatal("unexpected sign predicates")
	}
	if Zero().Sign() != 0 || New(-3).Sign() != -1 {
		t.Fatal("unexpected Sign")
	}
	var zero Amount
	if !zero.Equal(Zero()) || zero.String() != "0" {
		t.Fatalf("zero value = %s", zero)
	}
}

func TestInt64(t *testing.T) {
	if v, ok := New(123).Int64(); !ok || v != 123 {
		t.Fatalf("Int64 = %d, %v", v, ok)
	}
	if _, ok := Max().Int64(); ok {
		t.Fatal("Max must not fit in int64")
	}
}

func TestJSONUsesStrings(t *testing.T) {
	payload := struct {
		Value Amount `json:"value"`
	}{Value: Max()}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"value":"170141183460469231731687303715884105727"}` {
		t.Fatalf("json = %s", data)
	}

	var decoded struct {
		Value Amount `json:"value"`
	}
	if err := json.Unmarshal([]byte(`{"value":42}`), &decoded); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if !decoded.Value.Equal(New(42)) {
		t.Fatalf("decoded = %s, want 42", decoded.Value)
	}
	if err := json.Unmarshal([]byte(`{"value":"x"}`), &decoded); err == nil {
		t.Fatal("expected error for non-integer")
	}
}

func TestScan(t *testing.T) {
	var a Amount
	for _, src := range []any{"77", []byte("77"), int64(77)} {
		if err := a.Scan(src); err != nil {
			t.Fatalf("scan %T: %v", src, err)
		}
		if !a.Equal(New(77)) {
			t.Fatalf("scan %T = %s", src, a)
		}
	}
	if err := a.Scan(nil); err != nil || !a.IsZero() {
		t.Fatalf("scan nil = %s, %v", a, err)
	}
	if err := a.Scan(1.5); err == nil {
		t.Fatal("expected error for float")
	}
	value, err := New(9).Value()
	if err != nil || value != "9" {
		t.Fatalf("value = %v, %v", value, err)
	}
}
