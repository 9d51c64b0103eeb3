package driven

// SessionCredentials carry cookie and CSRF material for the console
// API backend.
type SessionCredentials struct {
	// Cookies is the raw Cookie header value.
	Cookies string

	// CSRFToken is sent as the X-CSRF-Token header.
	CSRFToken string
}

// CredentialsProvider hands out the secrets the remote adapters need.
// Implementations read from configuration and the environment; secrets
// never live in core.
type CredentialsProvider interface {
	// DatasetToken returns the bearer token for document-store calls.
	DatasetToken() (string, error)

	// ChatflowToken returns the bearer token for chat-endpoint calls.
	ChatflowToken() (string, error)

	// Session returns cookie/CSRF material for the console API backend.
	Session() (*SessionCredentials, error)
}
