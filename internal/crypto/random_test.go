package crypto

import (
	"strings"
	"testing"
)

func TestRandomString(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr error
	}{
		{name: "single character", length: 1},
		{name: "token id length", length: tokenIDLength},
		{name: "maximum length", length: MaxRandomLength},
		{name: "zero length", length: 0, wantErr: ErrRandomLength},
		{name: "negative length", length: -3, wantErr: ErrRandomLength},
		{name: "length too long", length: MaxRandomLength + 1, wantErr: ErrRandomLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RandomString(tt.length)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("RandomString() error = %v, want %v", err, tt.wantErr)
				}
				if result != "" {
					t.Error("RandomString() should return empty string on error")
				}
				return
			}

			if err != nil {
				t.Fatalf("RandomString() unexpected error: %v", err)
			}
			if len(result) != tt.length {
				t.Errorf("RandomString() length = %d, want %d", len(result), tt.length)
			}
		})
	}
}

func TestRandomStringAlphabet(t *testing.T) {
	s, err := RandomString(MaxRandomLength)
	if err != nil {
		t.Fatalf("RandomString() unexpected error: %v", err)
	}
	for _, ch := range s {
		if !strings.ContainsRune(alphanumericChars, ch) {
			t.Errorf("RandomString() produced unexpected character %q", string(ch))
		}
	}
}

func TestRandomStringProducesUniqueValues(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		s, err := RandomString(tokenIDLength)
		if err != nil {
			t.Fatalf("RandomString() unexpected error: %v", err)
		}
		if seen[s] {
			t.Errorf("duplicate value generated: %q", s)
		}
		seen[s] = true
	}
}
