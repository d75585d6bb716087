package prompts

import (
	"strings"
	"testing"

	"github.com/szaher/lingochat/internal/language"
)

func TestDefaultHasEveryLanguage(t *testing.T) {
	lib := Default()
	seen := make(map[string]language.Tag)
	for _, tag := range language.All() {
		text, ok := lib.templates[tag]
		if !ok || strings.TrimSpace(text) == "" {
			t.Fatalf("missing template for %q", tag)
		}
		if other, dup := seen[text]; dup {
			t.Errorf("%q and %q share the same template", tag, other)
		}
		seen[text] = tag
	}
}

func TestPromptForFallsBackToEnglish(t *testing.T) {
	english := PromptFor(language.English)
	for _, tag := range []language.Tag{"", "auto", "klingon"} {
		if got := PromptFor(tag); got != english {
			t.Errorf("PromptFor(%q) did not fall back to the English template", tag)
		}
	}
}

func TestPromptForIsPure(t *testing.T) {
	for _, tag := range language.All() {
		if PromptFor(tag) != PromptFor(tag) {
			t.Errorf("PromptFor(%q) returned different text on repeated calls", tag)
		}
	}
}

func TestTemplatesAreLocalized(t *testing.T) {
	tests := []struct {
		tag  language.Tag
		want string
	}{
		{language.English, "consult a healthcare professional"},
		{language.Spanish, "español"},
		{language.French, "français"},
		{language.German, "Deutsch"},
		{language.Hinglish, "Aap"},
		{language.Hindi, "चैटबॉट"},
		{language.Arabic, "العربية"},
		{language.Chinese, "中文"},
	}
	for _, tt := range tests {
		if got := PromptFor(tt.tag); !strings.Contains(got, tt.want) {
			t.Errorf("PromptFor(%q) does not contain %q", tt.tag, tt.want)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	lib, err := Load(strings.NewReader("french: |-\n  Réponds en français, brièvement.\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := lib.PromptFor(language.French); got != "Réponds en français, brièvement." {
		t.Errorf("override not applied, got %q", got)
	}
	if lib.PromptFor(language.German) != PromptFor(language.German) {
		t.Error("languages without overrides should keep the default template")
	}
	if Default().PromptFor(language.French) == lib.PromptFor(language.French) {
		t.Error("Load must not mutate the default library")
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	lib, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if lib.PromptFor(language.English) != PromptFor(language.English) {
		t.Error("empty override document should yield the defaults")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown language", "klingon: Qapla'\n"},
		{"blank template", "german: \"  \"\n"},
		{"not a mapping", "- english\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
