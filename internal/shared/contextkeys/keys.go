package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "tacticsboard-auth context key " + string(c)
}

// UserIDKey is the key for the authenticated user's ID in context.Context
const UserIDKey = contextKey("userID")

// UserEmailKey is the key for the authenticated user's email in context.Context
const UserEmailKey = contextKey("userEmail")

// UserRoleKey is the key for the authenticated user's role in context.Context
const UserRoleKey = contextKey("userRole")

// SessionIDKey is the key for the session ID bound to the current request
const SessionIDKey = contextKey("sessionID")

// TokenKey is the key for the raw access token extracted from the request
const TokenKey = contextKey("token")

// RequestIDKey is the key for the request correlation ID
const RequestIDKey = contextKey("requestID")

// ComponentKey is the key for the component name attached by loggers
const ComponentKey = contextKey("component")

// OperationKey is the key for the operation name attached by loggers
const OperationKey = contextKey("operation")
