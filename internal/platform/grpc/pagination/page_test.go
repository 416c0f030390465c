package pagination

import "testing"

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 50, Max: 500}
	tests := []struct {
		in   int32
		want int
	}{
		{in: 0, want: 50},
		{in: -3, want: 50},
		{in: 10, want: 10},
		{in: 900, want: 500},
	}
	for _, tt := range tests {
		if got := ClampPageSize(tt.in, cfg); got != tt.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("zero config = %d, want 1", got)
	}
}

func TestNormalizeOrderBy(t *testing.T) {
	cfg := OrderByConfig{Default: "campaign_id", Allowed: []string{"campaign_id", "campaign_id desc"}}

	got, err := NormalizeOrderBy("", cfg)
	if err != nil || got != "campaign_id" {
		t.Fatalf("default = %q, %v", got, err)
	}
	got, err = NormalizeOrderBy("campaign_id desc", cfg)
	if err != nil || got != "campaign_id desc" {
		t.Fatalf("desc = %q, %v", got, err)
	}
	if _, err := NormalizeOrderBy("raised", cfg); err == nil {
		t.Fatal("expected error for unknown order")
	}
}
