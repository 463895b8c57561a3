package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeKind names what happened to the ledger.
type ChangeKind string

const (
	TransactionCreated ChangeKind = "transaction.created"
	TransactionUpdated ChangeKind = "transaction.updated"
	TransactionDeleted ChangeKind = "transaction.deleted"
	SettingsUpdated    ChangeKind = "settings.updated"
)

// LedgerChangedMessage tells consumers which month needs recomputing. It does
// not carry the transaction itself; consumers reload from the store.
type LedgerChangedMessage struct {
	Kind      ChangeKind `json:"kind"`
	Month     string     `json:"month,omitempty"`
	TxID      string     `json:"tx_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewLedgerChangedMessage(kind ChangeKind, month, txID string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Kind:      kind,
		Month:     month,
		TxID:      txID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message and rejects unknown kinds.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case TransactionCreated, TransactionUpdated, TransactionDeleted, SettingsUpdated:
	default:
		return nil, fmt.Errorf("unknown change kind %q", msg.Kind)
	}
	return &msg, nil
}
