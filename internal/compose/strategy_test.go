package compose

import "testing"

func TestParseStrategies(t *testing.T) {
	tests := []struct {
		name    string
		tags    []string
		wantErr bool
	}{
		{
			name: "full vocabulary",
			tags: []string{"semantic", "sentence", "retain_hashtags", "preserve_mentions"},
		},
		{
			name:    "empty list",
			tags:    nil,
			wantErr: true,
		},
		{
			name:    "unknown tag",
			tags:    []string{"sentence", "by_vibes"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStrategies(tt.tags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategies error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if len(got) != len(tt.tags) {
				t.Errorf("parsed %d strategies, want %d", len(got), len(tt.tags))
			}
			for i, s := range got {
				if string(s) != tt.tags[i] {
					t.Errorf("order not preserved at %d: %q", i, s)
				}
			}
		})
	}
}
