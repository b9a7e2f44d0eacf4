package llm

// Role identifies the speaker of a Turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Turn represents a single message in a conversation.
// Turns are values: once created they are never modified in place.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewTurn creates a turn with the given role and content.
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content}
}

// SystemTurn, UserTurn and AssistantTurn are shorthands for NewTurn.
func SystemTurn(content string) Turn    { return NewTurn(RoleSystem, content) }
func UserTurn(content string) Turn      { return NewTurn(RoleUser, content) }
func AssistantTurn(content string) Turn { return NewTurn(RoleAssistant, content) }

// ErrorResponse is the JSON body returned by the API on failures.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	Detail    string `json:"detail,omitempty"`
}
