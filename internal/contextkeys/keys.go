package contextkeys

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// Username is the context key for the authenticated creator's username.
	Username contextKey = "username"
)
