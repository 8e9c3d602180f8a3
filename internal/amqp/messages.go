package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertMessage tells the alerts worker that an expense may have
// pushed a category over budget. It carries only identifiers; the
// worker re-reads current state before deciding anything.
type BudgetAlertMessage struct {
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Category      string    `json:"category"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(transactionID, userID, category string) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		TransactionID: transactionID,
		UserID:        userID,
		Category:      category,
		Timestamp:     time.Now(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
