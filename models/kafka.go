package models

// Message is a single key/value pair handed to the broker client
type Message struct {
	Key   []byte
	Value []byte
}

// Batch is an ordered group of messages published in one call
type Batch []Message

// Keys returns the message keys in batch order
func (b Batch) Keys() []string {
	keys := make([]string, len(b))
	for idx, msg := range b {
		keys[idx] = string(msg.Key)
	}
	return keys
}
