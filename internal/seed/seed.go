// Package seed loads question pools from YAML.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"iq-arena-service/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultQuestions []byte

type file struct {
	Questions []domain.Question `yaml:"questions"`
}

// Default returns the built-in question pool.
func Default() ([]domain.Question, error) {
	return Parse(defaultQuestions)
}

// Load reads a question pool from path, or the built-in pool when path is empty.
func Load(path string) ([]domain.Question, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML question pool.
func Parse(data []byte) ([]domain.Question, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Questions))
	for i, q := range f.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("question %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("question %s: duplicate id", q.ID)
		}
		seen[q.ID] = struct{}{}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %s: needs at least two options", q.ID)
		}
		if !contains(q.Options, q.CorrectAnswer) {
			return nil, fmt.Errorf("question %s: correct answer %q is not an option", q.ID, q.CorrectAnswer)
		}
		if q.Difficulty < 0 {
			return nil, fmt.Errorf("question %s: negative difficulty", q.ID)
		}
	}
	return f.Questions, nil
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
