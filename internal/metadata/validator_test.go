package metadata

import (
	"os"
	"path/filepath"
	"testing"
)

const testdataDir = "testdata"

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(testdataDir, name))
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return data
}

func TestValidate_Valid(t *testing.T) {
	result, err := Validate(readTestdata(t, "valid.json"))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Valid {
		t.Errorf("expected valid, got issues: %s", result.Summary())
	}
	if result.Err() != nil {
		t.Errorf("Err() = %v, want nil", result.Err())
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		file     string
		keywords []string
	}{
		{"invalid-types.json", []string{"type", "minLength"}},
		{"invalid-docs.json", []string{"additionalProperties", "required"}},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			result, err := Validate(readTestdata(t, tt.file))
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if result.Valid {
				t.Fatal("expected invalid")
			}
			found := make(map[string]bool)
			for _, issue := range result.Issues {
				found[issue.Keyword] = true
			}
			for _, kw := range tt.keywords {
				if !found[kw] {
					t.Errorf("missing issue with keyword %q in %s", kw, result.Summary())
				}
			}
			if result.Err() == nil {
				t.Error("Err() = nil for invalid result")
			}
		})
	}
}

func TestValidate_EmptyObject(t *testing.T) {
	result, err := Validate([]byte(`{}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Valid {
		t.Errorf("empty metadata should be valid (source is optional): %s", result.Summary())
	}
}

func TestValidate_Unparsable(t *testing.T) {
	if _, err := Validate([]byte(`{"name": `)); err == nil {
		t.Fatal("expected error for unparsable JSON")
	}
}
