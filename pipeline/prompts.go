package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/core"
)

const queryGenerationPrompt = `You turn a user's question into web search queries.
Write at most %d short, diverse queries that together cover what is needed to answer the question.
Resolve pronouns and references using the conversation so far.
Reply with the queries only, one per line, inside <queries></queries> tags.`

const summaryPrompt = `Summarize the following web page.
Write 2-3 dense paragraphs covering the main facts, claims and figures on the page.
Keep names, numbers and dates exact. Do not add information that is not on the page.`

const synthesisPrompt = `You are a research assistant answering from web search results.
Current time: %s

Answer the question using the numbered sources below. Cite sources inline as [n].
If the sources do not contain the answer, say so and answer from general knowledge, marking it as such.`

func queryGenerationMessages(query string, history []core.ChatTurn, limit int) []ai.Message {
	msgs := []ai.Message{ai.SystemMessage(fmt.Sprintf(queryGenerationPrompt, limit))}
	msgs = append(msgs, historyMessages(history)...)
	return append(msgs, ai.UserMessage(query))
}

func summaryMessages(page *ai.Page, chunks []string) []ai.Message {
	var b strings.Builder
	if page.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", page.Title)
	}
	fmt.Fprintf(&b, "URL: %s\n\n", page.URL)
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "--- excerpt %d ---\n%s\n\n", i+1, chunk)
	}
	return []ai.Message{
		ai.SystemMessage(summaryPrompt),
		ai.UserMessage(b.String()),
	}
}

func synthesisMessages(run *core.PipelineRun, instructions string, now time.Time) []ai.Message {
	var system strings.Builder
	fmt.Fprintf(&system, synthesisPrompt, now.Format(time.RFC1123))
	if instructions = strings.TrimSpace(instructions); instructions != "" {
		system.WriteString("\n\n")
		system.WriteString(instructions)
	}
	system.WriteString("\n\nSources:\n")
	system.WriteString(formatSources(run.Reranked))

	msgs := []ai.Message{ai.SystemMessage(system.String())}
	msgs = append(msgs, historyMessages(run.History)...)
	return append(msgs, ai.UserMessage(run.Query))
}

// formatSources renders documents as numbered context blocks.
func formatSources(docs []core.SearchDocument) string {
	if len(docs) == 0 {
		return "(no sources found)\n"
	}
	var b strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&b, "[%d] %s\n%s\n%s\n\n", i+1, doc.Title, doc.URL, doc.Content)
	}
	return b.String()
}

func historyMessages(history []core.ChatTurn) []ai.Message {
	msgs := make([]ai.Message, 0, len(history))
	for _, turn := range history {
		if turn.Role == core.RoleAssistant {
			msgs = append(msgs, ai.AssistantMessage(turn.Content))
		} else {
			msgs = append(msgs, ai.UserMessage(turn.Content))
		}
	}
	return msgs
}
