package answer

import (
	"fmt"
	"strings"

	"github.com/chemassist/backend/internal/llm"
	"github.com/chemassist/backend/internal/retrieval"
)

const (
	maxHistoryPairs        = 3
	assistantHistoryBudget = 500
)

const systemPrompt = `You are ChemAssist, a document Q&A assistant for industrial laboratories.
You answer questions about documents uploaded to the knowledge base (product lists, ingredient tables, SDS sheets, SOPs, regulations, CoA, etc.).

STRICT RULES — follow exactly:
1. NEVER open with a greeting, self-introduction, or "I am ChemAssist". Start your answer directly. The only exception: if the user sends a greeting with NO question (e.g. "Hi", "Ciao"), reply in one sentence only.
2. Answer ONLY from the retrieved context below. Do not invent facts.
3. Cite sources inline as [filename].
4. The context may be in Italian — translate/summarise as needed.
5. If the context contains partial information, report what you found. Example: "The document lists: X, Y, Z …"
6. For counting questions ("how many times…", "quante volte…"), count the occurrences visible in the retrieved context and state the number. If the context is incomplete, say so explicitly.
7. If the answer is absent: say "Not found in the loaded documents."
8. Be concise. Use bullet points for lists.
9. Never make GMP release decisions.
`

// BuildMessages assembles the chat sequence: system instruction, the trailing
// conversation history, then one user turn carrying the numbered context
// blocks and the literal query. Long assistant turns are truncated so stale
// answers do not crowd out the fresh context.
func BuildMessages(query string, chunks []retrieval.ScoredChunk, history []llm.Message) []llm.Message {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}

	start := len(history) - maxHistoryPairs*2
	if start < 0 {
		start = 0
	}
	for _, msg := range history[start:] {
		content := msg.Content
		if msg.Role == llm.RoleAssistant {
			if r := []rune(content); len(r) > assistantHistoryBudget {
				content = string(r[:assistantHistoryBudget]) + "…"
			}
		}
		messages = append(messages, llm.Message{Role: msg.Role, Content: content})
	}

	var contextBlock string
	if len(chunks) > 0 {
		parts := make([]string, len(chunks))
		for i, c := range chunks {
			parts[i] = fmt.Sprintf("[%d] %s / %s\n%s", i+1, c.SourceFile, c.SectionTitle, c.Text)
		}
		contextBlock = "RETRIEVED CONTEXT:\n" + strings.Join(parts, "\n\n---\n\n")
	} else {
		contextBlock = "RETRIEVED CONTEXT: (none — no relevant documents found)"
	}

	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("%s\n\nUSER QUERY: %s", contextBlock, query),
	})

	return messages
}
