package domain

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// ChatMessage is a single transcript entry. Image holds a displayable
// reference (data URI or absolute URL) when the reply carried one.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}
