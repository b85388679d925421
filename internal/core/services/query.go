package services

import (
	"context"
	"errors"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure QueryOrchestrator implements the interface.
var _ driving.QueryService = (*QueryOrchestrator)(nil)

// Fallback answers returned instead of an error.
const (
	FallbackGeneration = "I apologize, but I encountered an error processing your question."
	FallbackRetrieval  = "Sorry, I encountered an error processing your question."
)

// DefaultQATemplate is used when no prompt store is configured.
const DefaultQATemplate = driven.DefaultQAPrompt

// QueryOrchestrator answers questions from retrieved chunks and history.
type QueryOrchestrator struct {
	kb           *KnowledgeBase
	llm          driven.LLMService
	prompts      driven.PromptStore
	conversation *ConversationManager
	topK         int
	genOpts      driven.GenerateOptions
}

// QueryOption configures a QueryOrchestrator.
type QueryOption func(*QueryOrchestrator)

// WithTopK sets the number of chunks retrieved per question.
func WithTopK(k int) QueryOption {
	return func(q *QueryOrchestrator) {
		if k > 0 {
			q.topK = k
		}
	}
}

// WithPromptStore loads the QA template from the store.
func WithPromptStore(prompts driven.PromptStore) QueryOption {
	return func(q *QueryOrchestrator) {
		q.prompts = prompts
	}
}

// WithGenerateOptions sets the LLM generation options.
func WithGenerateOptions(opts driven.GenerateOptions) QueryOption {
	return func(q *QueryOrchestrator) {
		q.genOpts = opts
	}
}

// NewQueryOrchestrator creates an orchestrator. A nil llm makes every
// answer a generation fallback.
func NewQueryOrchestrator(
	kb *KnowledgeBase,
	llm driven.LLMService,
	conversation *ConversationManager,
	opts ...QueryOption,
) *QueryOrchestrator {
	q := &QueryOrchestrator{
		kb:           kb,
		llm:          llm,
		conversation: conversation,
		topK:         domain.DefaultTopK,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Answer retrieves context, builds the prompt and generates an answer.
// Failures never surface as errors; the answer is a fallback instead.
func (q *QueryOrchestrator) Answer(ctx context.Context, question string, history []domain.Message) domain.Answer {
	chunks, err := q.kb.Search(ctx, question, q.topK)
	if err != nil {
		logger.Warn("Retrieval failed: %v", err)
		return domain.Answer{Text: FallbackRetrieval, Degraded: true}
	}
	sources := distinctSources(chunks)

	if q.llm == nil {
		logger.Warn("Generation skipped: %v", domain.ErrLLMUnavailable)
		return domain.Answer{Text: FallbackGeneration, Sources: sources, Degraded: true}
	}

	prompt := q.BuildPrompt(question, chunks, history)
	logger.Debug("Prompt with %d context chunks, %d history messages", len(chunks), len(history))

	text, err := q.llm.Generate(ctx, prompt, q.genOpts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("Generation cancelled")
		} else {
			logger.Warn("Generation failed: %v", err)
		}
		return domain.Answer{Text: FallbackGeneration, Sources: sources, Degraded: true}
	}

	return domain.Answer{Text: strings.TrimSpace(text), Sources: sources}
}

// BuildPrompt fills the QA template.
func (q *QueryOrchestrator) BuildPrompt(question string, chunks []domain.IndexedChunk, history []domain.Message) string {
	contexts := make([]string, len(chunks))
	for i, c := range chunks {
		contexts[i] = c.Content
	}

	historyBlock := ""
	if formatted := q.conversation.FormatHistory(history); formatted != "" {
		historyBlock = "Previous conversation:\n" + formatted + "\n"
	}

	r := strings.NewReplacer(
		driven.PlaceholderHistory, historyBlock,
		driven.PlaceholderContext, strings.Join(contexts, "\n\n"),
		driven.PlaceholderQuestion, question,
	)
	return r.Replace(q.template())
}

func (q *QueryOrchestrator) template() string {
	if q.prompts == nil {
		return DefaultQATemplate
	}
	tmpl, err := q.prompts.Load(driven.PromptQA)
	if err != nil || strings.TrimSpace(tmpl) == "" {
		return DefaultQATemplate
	}
	return tmpl
}

func distinctSources(chunks []domain.IndexedChunk) []string {
	var sources []string
	seen := make(map[string]struct{})
	for _, c := range chunks {
		name := c.Filename()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		sources = append(sources, name)
	}
	return sources
}
