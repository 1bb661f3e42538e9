package usecase

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var answerTemplate = template.Must(template.ParseFS(promptTemplates, "templates/answer_prompt.txt"))

// PromptData is the input of the answer prompt template.
type PromptData struct {
	Query   string
	Context string
}

// Composer turns ranked chunks into a grounded prompt and asks the LLM once.
type Composer struct {
	llm port.LLM
}

func NewComposer(llm port.LLM) *Composer {
	return &Composer{llm: llm}
}

// ContextBlock numbers chunks from 1 in rank order: "[1] a\n[2] b".
func ContextBlock(chunks []string) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[%d] %s", i+1, c)
	}
	return sb.String()
}

// BuildPrompt renders the answer prompt for query over rankedChunks.
func BuildPrompt(query string, rankedChunks []string) (string, error) {
	var buf bytes.Buffer
	err := answerTemplate.Execute(&buf, PromptData{
		Query:   query,
		Context: ContextBlock(rankedChunks),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Compose generates the answer. Sources are rankedChunks in citation order,
// so marker [i] in the answer refers to Sources[i-1]. Citations in the model
// output are not validated.
func (c *Composer) Compose(ctx context.Context, query string, rankedChunks []string) (domain.Answer, error) {
	prompt, err := BuildPrompt(query, rankedChunks)
	if err != nil {
		return domain.Answer{}, err
	}

	text, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
		}
		return domain.Answer{}, err
	}

	sources := make([]string, len(rankedChunks))
	copy(sources, rankedChunks)
	return domain.Answer{Text: text, Sources: sources}, nil
}
