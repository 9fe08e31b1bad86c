package model

// MessageType classifies an advisory message produced by reconciliation or
// merge.
type MessageType string

const (
	MessageError   MessageType = "error"
	MessageWarning MessageType = "warning"
)

// Message is a client-facing advisory attached to a cart read.
type Message struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

// ReconciledCart is the result of a cart read: the surviving, corrected items
// plus advisories in original entry order.
type ReconciledCart struct {
	Items    []LineItem `json:"cart"`
	Messages []Message  `json:"messages"`
}
