package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// WelcomeMessage opens every new session before the user says anything.
	WelcomeMessage = "Hello! I'm your AI assistant. How can I help you today?"

	// Health check payload
	HealthStatusOK = "ok"
	HealthMessage  = "Data Chat API is running"

	// SessionClearedFormat is the confirmation returned by a delete.
	SessionClearedFormat = "Session %s cleared"

	// ErrSessionNotFound is matched by the controller to produce a 404.
	ErrSessionNotFound = "session not found"
)
