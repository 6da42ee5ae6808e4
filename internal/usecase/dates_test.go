package usecase

import "testing"

func TestResolveDate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		strat dateStrategy
		want  string
		found bool
	}{
		{"english month first", "December 15, 2023", dateMonthNameFirst, "2023-12-15", true},
		{"abbreviated month", "Dec 15, 2023", dateMonthNameFirst, "2023-12-15", true},
		{"german day first", "15. Dezember 2023", dateDayFirstName, "2023-12-15", true},
		{"german numeric", "15.12.2023", dateNumericDMY, "2023-12-15", true},
		{"us numeric", "12/15/2023", dateNumericMDY, "2023-12-15", true},
		{"iso", "2023-12-15", dateISO, "2023-12-15", true},
		{"spanish connectors", "15 de diciembre de 2023", dateDayFirstName, "2023-12-15", true},
		{"french accented month", "15 décembre 2023", dateDayFirstName, "2023-12-15", true},
		{"unknown month word", "Blursday 15, 2023", dateMonthNameFirst, "", false},
		{"day 32 rejected", "32.12.2023", dateNumericDMY, "", false},
		{"month 13 rejected", "15.13.2023", dateNumericDMY, "", false},
		{"feb 29 leap year", "29.02.2024", dateNumericDMY, "2024-02-29", true},
		{"feb 29 non-leap year", "29.02.2023", dateNumericDMY, "", false},
		{"feb 29 century non-leap", "29.02.1900", dateNumericDMY, "", false},
		{"feb 29 quadricentennial", "29.02.2000", dateNumericDMY, "2000-02-29", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := tt.strat.re.FindStringSubmatch(tt.text)
			if match == nil {
				if tt.found {
					t.Fatalf("pattern did not match %q", tt.text)
				}
				return
			}

			got, ok := resolveDate(match, tt.strat.order)
			if ok != tt.found {
				t.Fatalf("resolveDate(%q) ok = %v, want %v", tt.text, ok, tt.found)
			}
			if got != tt.want {
				t.Errorf("resolveDate(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractOrderDate_SkipsInvalidCandidates(t *testing.T) {
	// The first numeric candidate is calendar-invalid; the extractor must move
	// on to the next match instead of giving up.
	text := "Druckdatum: 32.13.2023\nRechnungsdatum: 15.12.2023"

	got := extractOrderDate(text, []dateStrategy{dateNumericDMY})
	if got != "2023-12-15" {
		t.Errorf("extractOrderDate() = %q, want 2023-12-15", got)
	}
}

func TestResolveMonth(t *testing.T) {
	tests := []struct {
		word  string
		want  int
		found bool
	}{
		{"December", 12, true},
		{"dez", 12, true},
		{"märz", 3, true},
		{"maerz", 3, true},
		{"février", 2, true},
		{"fevrier", 2, true},
		{"settembre", 9, true},
		{"diciembre", 12, true},
		{"sept.", 9, true},
		{"notamonth", 0, false},
	}

	for _, tt := range tests {
		got, ok := resolveMonth(tt.word)
		if ok != tt.found || got != tt.want {
			t.Errorf("resolveMonth(%q) = (%d, %v), want (%d, %v)", tt.word, got, ok, tt.want, tt.found)
		}
	}
}
