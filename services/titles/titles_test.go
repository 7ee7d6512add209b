package titles

import "testing"

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"":                               "",
		"Dune: Part Two":                 "dune part two",
		"Amélie":                         "amelie",
		"Les Misérables!":                "les miserables",
		"The   Zone of   Interest":       "the zone of interest",
		"I'm Still Here":                 "im still here",
		"Crouching Tiger, Hidden Dragon": "crouching tiger hidden dragon",
	}
	for input, expect := range tests {
		if got := Normalize(input); got != expect {
			t.Errorf("Normalize(%q) = %q, want %q", input, got, expect)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Dune: Part Two", "Amélie", "It", "C'était un rendez-vous", "  spaced   out  "}
	for _, input := range inputs {
		once := Normalize(input)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestSlugToTitle(t *testing.T) {
	tests := map[string]string{
		"dune-part-two-32174":           "dune part two",
		"the-zone-of-interest-ov-99881": "the zone of interest",
		"oppenheimer-imax-70mm-12":      "oppenheimer imax 70mm", // only the trailing id is stripped
		"anora-4dx-55":                  "anora",
		"past-lives":                    "past lives",
		"65-12345":                      "65", // numeric title survives when a trailing id follows
	}
	for input, expect := range tests {
		if got := SlugToTitle(input); got != expect {
			t.Errorf("SlugToTitle(%q) = %q, want %q", input, got, expect)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("dune part two"); got != "Dune Part Two" {
		t.Errorf("TitleCase = %q", got)
	}
	if got := TitleCase("past lives"); got != "Past Lives" {
		t.Errorf("TitleCase = %q", got)
	}
}

func TestIsMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"dune part two", "dune part two", true},
		{"dune part two", "dune", true}, // containment in either direction
		{"dune", "dune part two", true},
		{"past lives", "the zone of interest", false},
		{"", "dune", false},
		{"dune", "", false},
		// Known tradeoff of the containment rule: short generic titles
		// over-match.
		{"it", "it follows", true},
	}
	for _, tt := range tests {
		if got := IsMatch(tt.a, tt.b); got != tt.want {
			t.Errorf("IsMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsMatchSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"dune part two", "dune"},
		{"it", "it follows"},
		{"past lives", "anora"},
		{"same", "same"},
	}
	for _, p := range pairs {
		if IsMatch(p[0], p[1]) != IsMatch(p[1], p[0]) {
			t.Errorf("IsMatch not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestMatchesAny(t *testing.T) {
	watchlist := []string{"dune part two", "past lives"}
	if !MatchesAny("dune part two", watchlist) {
		t.Error("expected match")
	}
	if MatchesAny("anora", watchlist) {
		t.Error("unexpected match")
	}
	if MatchesAny("anything", nil) {
		t.Error("empty watchlist must never match")
	}
}

func TestNormalizeAll(t *testing.T) {
	got := NormalizeAll([]string{"Dune: Part Two", "  ", "Amélie"})
	if len(got) != 2 || got[0] != "dune part two" || got[1] != "amelie" {
		t.Errorf("NormalizeAll = %v", got)
	}
}
