package session

const (
	messageAdvisoryFailed     = "Sorry, I encountered an error. Please try again."
	messageMissingCredentials = "System Error: API Key is missing or invalid."
)
