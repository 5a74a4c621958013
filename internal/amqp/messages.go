package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionCreatedMessage announces a newly stored ledger transaction.
// It carries only the id; consumers load the row from the ledger.
type TransactionCreatedMessage struct {
	MessageID     string    `json:"message_id"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionCreatedMessage(id int64) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		MessageID:     uuid.NewString(),
		TransactionID: id,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
