package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role tags a turn by its author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one message unit in the conversation history. Turns are immutable
// once appended; insertion order is the model's context window.
type Turn struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// NewTurn creates a Turn stamped with the current time.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}
