package classifier

import (
	"strings"
	"text/template"

	"github.com/spec-kit/civic-triage/internal/domain"
)

const promptTemplate = `Analyze this civic issue image and description to categorize it.

Description: "{{.Description}}"

Based on the image and description, classify this civic issue into ONE of these categories:
{{range .Categories}}- {{.}}
{{end}}
Respond with ONLY the category name and a confidence score (0-100). Format: "Category: [CATEGORY], Confidence: [SCORE]"`

var prompt = template.Must(template.New("classify").Parse(promptTemplate))

type promptData struct {
	Description string
	Categories  []domain.Category
}

func renderPrompt(description string) (string, error) {
	var sb strings.Builder
	err := prompt.Execute(&sb, promptData{
		Description: strings.TrimSpace(description),
		Categories:  domain.Categories,
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
