package domain

// Message is one record from the upstream message corpus. The json tags match
// the upstream API wire format, where the body field is named "message".
type Message struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"message"`
}
