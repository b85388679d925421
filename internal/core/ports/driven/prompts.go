package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptQA is the grounded question answering template.
	// It expects {chat_history}, {context} and {question} placeholders.
	PromptQA = "qa"
)

// QA prompt placeholders.
const (
	PlaceholderHistory  = "{chat_history}"
	PlaceholderContext  = "{context}"
	PlaceholderQuestion = "{question}"
)

// DefaultQAPrompt grounds the answer in retrieved context.
const DefaultQAPrompt = `You are a helpful assistant that answers questions based on the provided context.
Use the conversation history to understand follow-up questions.

{chat_history}Context from documents:
{context}

Question: {question}

Answer the question based on the context above. If the context does not contain the answer, say so.`
