package spotify

import (
	"context"
	"errors"
	"testing"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero", 0, 10},
		{"negative", -5, 10},
		{"small", 3, 3},
		{"max", 10, 10},
		{"over_max", 50, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLimit(tt.limit); got != tt.want {
				t.Errorf("ClampLimit(%d) = %d; want %d", tt.limit, got, tt.want)
			}
		})
	}
}

func TestMissingTokenRejected(t *testing.T) {
	ctx := context.Background()

	if _, err := Search(ctx, "", "ocean breeze", 10); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Search error = %v; want ErrMissingToken", err)
	}
	if _, err := GetTrack(ctx, "   ", "track123"); !errors.Is(err, ErrMissingToken) {
		t.Errorf("GetTrack error = %v; want ErrMissingToken", err)
	}
	if _, err := Recommendations(ctx, "", []string{"track123"}, 5); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Recommendations error = %v; want ErrMissingToken", err)
	}
}
