package ingest

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii", "MySong", "MySong"},
		{"spaces become underscores", "My Great Song", "My_Great_Song"},
		{"diacritics stripped", "Canción Aérea", "Cancion_Aerea"},
		{"allowed punctuation kept", "track-01.final_mix", "track-01.final_mix"},
		{"runs collapse", "a   b!!!c", "a_b_c"},
		{"unicode outside latin", "歌曲 2024", "_2024"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Applying the rule to its own output must change nothing, since derived
// storage keys are occasionally re-sanitized.
func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"My Great Song", "Canción  Aérea!!", "a__b", "歌曲 2024", "x-y.z_w"}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
