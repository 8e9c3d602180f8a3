package amqp

import (
	"testing"
	"time"
)

func TestBudgetAlertMessage_RoundTrip(t *testing.T) {
	msg := NewBudgetAlertMessage("tx-123", "u1", "Food")
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := BudgetAlertMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if got.TransactionID != "tx-123" || got.UserID != "u1" || got.Category != "Food" {
		t.Errorf("FromJSON() = %+v", got)
	}
	if !got.Timestamp.Equal(msg.Timestamp.Truncate(time.Nanosecond)) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, msg.Timestamp)
	}
}

func TestBudgetAlertMessageFromJSON_Invalid(t *testing.T) {
	if _, err := BudgetAlertMessageFromJSON([]byte("not json")); err == nil {
		t.Error("FromJSON(garbage) should fail")
	}
}
