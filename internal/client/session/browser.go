package session

// Browser is the client's address bar.
type Browser interface {
	Location() string
	// Replace navigates to target without leaving the current entry in history.
	Replace(target string)
}

// Alerter shows a notice the user has to acknowledge.
type Alerter interface {
	Alert(message string)
}
