// Package prompts holds the per-language system prompt templates.
package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/szaher/lingochat/internal/language"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Library maps each supported language to its system prompt.
// A Library is immutable after construction and safe for concurrent use.
type Library struct {
	templates map[language.Tag]string
}

var defaultLibrary = sync.OnceValue(func() *Library {
	templates, err := decode(bytes.NewReader(defaultTemplates))
	if err != nil {
		panic(fmt.Sprintf("prompts: embedded templates: %v", err))
	}
	for _, tag := range language.All() {
		if templates[tag] == "" {
			panic(fmt.Sprintf("prompts: embedded templates missing %q", tag))
		}
	}
	return &Library{templates: templates}
})

// Default returns the library built from the embedded templates.
func Default() *Library {
	return defaultLibrary()
}

// Load reads a YAML document of language → template overrides and merges
// it over the embedded defaults. Unknown languages and blank templates are
// rejected.
func Load(r io.Reader) (*Library, error) {
	overrides, err := decode(r)
	if err != nil {
		return nil, err
	}

	merged := make(map[language.Tag]string, len(language.All()))
	for tag, text := range Default().templates {
		merged[tag] = text
	}
	for tag, text := range overrides {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("prompts: template for %q is empty", tag)
		}
		merged[tag] = text
	}
	return &Library{templates: merged}, nil
}

// PromptFor returns the template for tag. Tags without a template fall
// back to the English template.
func (l *Library) PromptFor(tag language.Tag) string {
	if text, ok := l.templates[tag]; ok {
		return text
	}
	return l.templates[language.English]
}

// PromptFor looks tag up in the default library.
func PromptFor(tag language.Tag) string {
	return Default().PromptFor(tag)
}

func decode(r io.Reader) (map[language.Tag]string, error) {
	var raw map[string]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[language.Tag]string{}, nil
		}
		return nil, fmt.Errorf("prompts: decode templates: %w", err)
	}

	templates := make(map[language.Tag]string, len(raw))
	for name, text := range raw {
		tag, ok := language.Parse(name)
		if !ok {
			return nil, fmt.Errorf("prompts: unknown language %q", name)
		}
		templates[tag] = text
	}
	return templates, nil
}
