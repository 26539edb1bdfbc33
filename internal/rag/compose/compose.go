package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/rag/llm"
	"github.com/pharma-intellect/pharmarag/internal/rag/retriever"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

const systemPrompt = `You are an expert pharmaceutical research assistant.
Your task is to answer questions based on the provided scientific literature and clinical trial data.
- Be precise and evidence-based
- Clearly cite your sources
- Distinguish between different studies
- If information is missing, say so explicitly
- Provide structured, readable answers`

// Composer turns a query and its retrieved documents into an answer.
// With an LLM it assembles a cited prompt; without one, or when the LLM
// call fails, it emits a deterministic templated answer instead. No
// state survives between calls.
type Composer struct {
	provider    llm.Provider // nil when the LLM is not configured
	maxTokens   int64
	temperature float64
	logger      *logging.Logger
}

func New(provider llm.Provider) *Composer {
	return &Composer{
		provider:    provider,
		maxTokens:   config.LLMMaxTokens,
		temperature: config.LLMTemperature,
		logger:      logging.NewLogger("composer"),
	}
}

func (c *Composer) Compose(ctx context.Context, query string, docs []retriever.Document) string {
	if len(docs) == 0 {
		// Nothing to condition on: the answer is the fixed
		// no-information template, with or without an LLM.
		return c.fallback(query, docs)
	}
	if c.provider == nil {
		c.logger.Warn("LLM not configured, returning templated answer")
		return c.fallback(query, docs)
	}

	answer, err := c.provider.Complete(ctx, systemPrompt, userPrompt(query, docs), c.maxTokens, c.temperature)
	if err != nil {
		c.logger.Error("Error generating answer, degrading to templated output", "error", err)
		return c.fallback(query, docs)
	}
	return answer
}

func userPrompt(query string, docs []retriever.Document) string {
	blocks := make([]string, 0, len(docs))
	for i, doc := range docs {
		blocks = append(blocks, fmt.Sprintf("Source %d (%s):\n%s", i+1, sourceTag(doc), doc.Text))
	}

	return fmt.Sprintf(`Based on the following scientific literature and clinical trial data, please answer this question:

QUESTION: %s

AVAILABLE DATA:
%s

Please provide a comprehensive, well-structured answer with clear reference to the sources.`,
		query, strings.Join(blocks, "\n\n"))
}

// fallback is the offline composer: a header naming the query plus one
// block per document with its source tag, title, and a bounded excerpt.
func (c *Composer) fallback(query string, docs []retriever.Document) string {
	if len(docs) == 0 {
		return fmt.Sprintf("Sorry, I could not find relevant information for your query: '%s'", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Answer to: %s\n\n", query)
	b.WriteString("Based on the retrieved documents:\n\n")

	for i, doc := range docs {
		title := doc.Metadata["title"]
		if title == "" {
			title = "No title"
		}
		fmt.Fprintf(&b, "**Source %d (%s):**\n", i+1, sourceTag(doc))
		fmt.Fprintf(&b, "*%s*\n", title)
		fmt.Fprintf(&b, "%s...\n\n", excerpt(doc.Text))
	}
	return b.String()
}

func sourceTag(doc retriever.Document) string {
	if tag := doc.Metadata["source"]; tag != "" {
		return tag
	}
	return "Unknown"
}

func excerpt(text string) string {
	if len(text) > config.FallbackExcerptLen {
		return text[:config.FallbackExcerptLen]
	}
	return text
}
