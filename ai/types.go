package ai

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message sent to a ChatModel.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SearchOptions tunes a single search request.
type SearchOptions struct {
	// MaxResults caps the number of results. Zero means provider default.
	MaxResults int

	// Language is an optional language code (e.g. "en").
	Language string

	// Engines optionally restricts which upstream engines are queried.
	Engines []string
}

// SearchResult is a single hit from a SearchProvider.
type SearchResult struct {
	Title   string
	URL     string
	Content string // Snippet text
}

// Page is a fetched web page reduced to readable text.
type Page struct {
	URL   string
	Title string
	Text  string
}
