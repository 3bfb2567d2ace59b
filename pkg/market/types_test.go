package market

import "testing"

func TestParseType(t *testing.T) {
	tests := []struct {
		market string
		want   Type
	}{
		{"h2h", TypeH2H},
		{"h2h_2way", TypeH2H2Way},
		{"over_under_2.5", TypeOverUnder},
		{"over_under_1.5", TypeOverUnder},
		{"btts", TypeBTTS},
		{"outrights", TypeUnknown},
		{"", TypeUnknown},
	}
	for _, tt := range tests {
		if got := ParseType(tt.market); got != tt.want {
			t.Errorf("ParseType(%q) = %s, want %s", tt.market, got, tt.want)
		}
	}
}

func TestOverUnderSide(t *testing.T) {
	tests := []struct {
		name string
		want Side
	}{
		{"Over 2.5", SideOver},
		{"Plus de 2.5", SideOver},
		{"More than 2.5", SideOver},
		{"Under 2.5", SideUnder},
		{"Moins de 2.5", SideUnder},
		{"Less than 2.5", SideUnder},
		{"Arsenal", SideNone},
	}
	for _, tt := range tests {
		if got := OverUnderSide(tt.name); got != tt.want {
			t.Errorf("OverUnderSide(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestBTTSSide(t *testing.T) {
	tests := []struct {
		name string
		want Side
	}{
		{"Yes", SideYes},
		{"Oui", SideYes},
		{"No", SideNo},
		{"Non", SideNo},
		{"Draw", SideNone},
	}
	for _, tt := range tests {
		if got := BTTSSide(tt.name); got != tt.want {
			t.Errorf("BTTSSide(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestOverUnderMarket(t *testing.T) {
	if got := OverUnderMarket(2.5); got != "over_under_2.5" {
		t.Errorf("OverUnderMarket(2.5) = %q", got)
	}
	if got := OverUnderMarket(3); got != "over_under_3" {
		t.Errorf("OverUnderMarket(3) = %q", got)
	}
}
