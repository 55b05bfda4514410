package auth

// API scopes accepted by the bridge daemon.
const (
	ScopeHealthRead   = "health:read"
	ScopeHealthManage = "health:manage"
)
