package constants

// Context keys shared across middleware and handlers
const (
	// ContextKeySubject is the authenticated token subject (management API)
	ContextKeySubject = "subject"

	// ContextKeyRequestID is the per-request correlation id
	ContextKeyRequestID = "requestID"

	// Body reader keys
	ContextKeyRawBody        = "rawBody"
	ContextKeyBodyValidation = "bodyValidation"
)
