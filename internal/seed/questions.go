package seed

import (
	_ "embed"
	"fmt"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/service"

	"gopkg.in/yaml.v3"
)

//go:embed default_questions.yaml
var defaultQuestionsYAML []byte

type questionCatalog struct {
	Questions []service.QuestionInput `yaml:"questions"`
}

// DefaultQuestions returns the built-in screening question catalog.
func DefaultQuestions() ([]service.QuestionInput, error) {
	return ParseQuestions(defaultQuestionsYAML)
}

// ParseQuestions decodes a YAML question catalog.
func ParseQuestions(raw []byte) ([]service.QuestionInput, error) {
	var catalog questionCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse question catalog: %w", err)
	}
	if len(catalog.Questions) == 0 {
		return nil, fmt.Errorf("question catalog is empty")
	}
	return catalog.Questions, nil
}
