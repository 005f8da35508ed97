package accounts

import "testing"

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}

	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("Failed to generate code: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("Expected 6-digit code, got %q", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("Expected numeric code, got %q", code)
			}
		}
		seen[code] = true
	}

	// 200 draws from a million values colliding down to a handful would
	// mean a broken generator.
	if len(seen) < 100 {
		t.Errorf("Expected varied codes, got %d distinct of 200", len(seen))
	}
}
