package branding

import "testing"

func TestEmbeddedValues(t *testing.T) {
	if got := CLIName(); got != "repoindex" {
		t.Errorf("CLIName() = %q, want %q", got, "repoindex")
	}
	if got := MetadataFile(); got != "metadata.json" {
		t.Errorf("MetadataFile() = %q, want %q", got, "metadata.json")
	}
	if got := IndexFile(); got != "repodata.json" {
		t.Errorf("IndexFile() = %q, want %q", got, "repodata.json")
	}
}

func TestEnvVar(t *testing.T) {
	tests := []struct {
		suffix string
		want   string
	}{
		{"timeout", "REPOINDEX_TIMEOUT"},
		{"tag-concurrency", "REPOINDEX_TAG_CONCURRENCY"},
		{"LOG_LEVEL", "REPOINDEX_LOG_LEVEL"},
	}
	for _, tt := range tests {
		if got := EnvVar(tt.suffix); got != tt.want {
			t.Errorf("EnvVar(%q) = %q, want %q", tt.suffix, got, tt.want)
		}
	}
}
