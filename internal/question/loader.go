package question

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

// LoadFile reads the question bank from a YAML file at startup. Questions
// without an explicit id get a positional one.
func LoadFile(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML question bank.
func Parse(data []byte) ([]Question, error) {
	var bank bankFile
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(bank.Questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	for i := range bank.Questions {
		q := &bank.Questions[i]
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("question %d has no text", i)
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		q.Position = i
	}
	return bank.Questions, nil
}
