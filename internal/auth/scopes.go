package auth

// OAuth scopes accepted by the admin API.
const (
	ScopeLimitsRead     = "limits:read"
	ScopeLimitsWrite    = "limits:write"
	ScopeOverridesWrite = "overrides:write"
)
