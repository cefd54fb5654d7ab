package constants

// ContextKeyUserID is the gin context key holding the authenticated user ID.
const ContextKeyUserID = "user_id"

// SessionCookieName is the short-lived cookie carrying OAuth login state.
const SessionCookieName = "flux_login"

// TokenCookieName is the cookie carrying the signed session credential.
const TokenCookieName = "token"

// Join code settings
const (
	JoinCodeLength = 12
)

// Activity feed limits
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 200
)

// Handle constraints
const (
	MinHandleLength = 2
	MaxHandleLength = 30
)
