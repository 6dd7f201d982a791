package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExpenseChangeMessage announces a store mutation. It carries only the id;
// consumers read the record from the store if they need it.
type ExpenseChangeMessage struct {
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseChangeMessage(op, id string) *ExpenseChangeMessage {
	return &ExpenseChangeMessage{
		Op:        op,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangeMessageFromJSON decodes and checks a message body.
func ExpenseChangeMessageFromJSON(data []byte) (*ExpenseChangeMessage, error) {
	var msg ExpenseChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Op == "" || msg.ID == "" {
		return nil, fmt.Errorf("incomplete change message: op=%q id=%q", msg.Op, msg.ID)
	}
	return &msg, nil
}
