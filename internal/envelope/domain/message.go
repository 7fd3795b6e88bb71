package domain

// SealedMessage is an outbound payload: the envelope and, alongside it, the replay
// metadata sealed under the server master key.
type SealedMessage struct {
	Envelope  string
	Metadata  string
	RequestID string
	Timestamp int64
}

// ReplayTicket is server-issued replay metadata a client embeds in its next envelope.
// The envelope must carry the same request id and timestamp as the sealed tuple.
type ReplayTicket struct {
	RequestID string
	Timestamp int64
	Metadata  string
}
