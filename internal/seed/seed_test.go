package seed

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPoolIsValid(t *testing.T) {
	pool, err := Default()
	if err != nil {
		t.Fatalf("default pool: %v", err)
	}
	if len(pool) <= 20 {
		t.Fatalf("expected more than 20 questions so sessions are sampled, got %d", len(pool))
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	data := `questions:
  - id: q1
    text: "2 + 2?"
    options: ["3", "4"]
    correctAnswer: "4"
    difficulty: 2
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	pool, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pool) != 1 || pool[0].CorrectAnswer != "4" || pool[0].Difficulty != 2 {
		t.Fatalf("unexpected pool: %+v", pool)
	}
}

func TestParseRejectsBadQuestions(t *testing.T) {
	cases := map[string]string{
		"missing id": `questions:
  - text: "x"
    options: ["a", "b"]
    correctAnswer: "a"
`,
		"duplicate id": `questions:
  - id: q1
    options: ["a", "b"]
    correctAnswer: "a"
  - id: q1
    options: ["a", "b"]
    correctAnswer: "b"
`,
		"answer not an option": `questions:
  - id: q1
    options: ["a", "b"]
    correctAnswer: "c"
`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
