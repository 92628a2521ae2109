package models

import "time"

// Dispatch is the audit record of one outbound call the executor issued,
// or decided not to issue, for an admitted event.
type Dispatch struct {
	MessageID   string    `json:"message_id" bson:"message_id"`
	Kind        string    `json:"kind" bson:"kind"`
	Source      string    `json:"source" bson:"source"`
	BlockNumber uint64    `json:"block_number" bson:"block_number"`
	Chain       string    `json:"chain,omitempty" bson:"chain,omitempty"` // target chain of the call
	Call        string    `json:"call,omitempty" bson:"call,omitempty"`
	TxHash      string    `json:"tx_hash,omitempty" bson:"tx_hash,omitempty"`
	Attempts    int       `json:"attempts" bson:"attempts"`
	Error       string    `json:"error,omitempty" bson:"error,omitempty"`
	Status      string    `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
