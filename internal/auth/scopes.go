package auth

// ScopeProgressRead grants read access to derived progress statistics.
const ScopeProgressRead = "progress:read"
