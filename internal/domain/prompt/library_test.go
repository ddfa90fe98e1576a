package prompt

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestNewLibraryEmbedded(t *testing.T) {
	lib, err := NewLibrary()
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	for _, category := range []string{RelevancyCheck, Summarization} {
		sys, err := lib.System(category)
		if err != nil {
			t.Errorf("System(%q) error = %v", category, err)
		}
		if sys == "" {
			t.Errorf("System(%q) is empty", category)
		}

		tmpl, err := lib.UserTemplate(category)
		if err != nil {
			t.Errorf("UserTemplate(%q) error = %v", category, err)
		}
		if !strings.Contains(tmpl, "{question}") {
			t.Errorf("UserTemplate(%q) missing {question} placeholder", category)
		}
	}

	if _, err := lib.System("nonexistent"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestLoadLibrary(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr bool
	}{
		{
			name: "valid",
			files: map[string]string{
				"custom.json": `{"system":"sys","user_template":"tmpl {question}"}`,
			},
		},
		{
			name:    "empty dir",
			files:   map[string]string{},
			wantErr: true,
		},
		{
			name: "invalid json",
			files: map[string]string{
				"broken.json": `{not json`,
			},
			wantErr: true,
		},
		{
			name: "missing system",
			files: map[string]string{
				"partial.json": `{"user_template":"tmpl"}`,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{}
			for name, body := range tt.files {
				fsys["prompts/"+name] = &fstest.MapFile{Data: []byte(body)}
			}

			lib, err := loadLibrary(fsys, "prompts")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadLibrary() error = %v", err)
			}
			if _, err := lib.System("custom"); err != nil {
				t.Errorf("System(custom) error = %v", err)
			}
		})
	}
}
