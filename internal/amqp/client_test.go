package amqp

import (
	"strings"
	"testing"
)

func TestExpenseChangeMessageRoundTrip(t *testing.T) {
	msg := NewExpenseChangeMessage("created", "abc")
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(body), `"op":"created"`) || !strings.Contains(string(body), `"id":"abc"`) {
		t.Fatalf("unexpected body %s", body)
	}

	back, err := ExpenseChangeMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if back.Op != msg.Op || back.ID != msg.ID || !back.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, msg)
	}
}

func TestExpenseChangeMessageFromJSONRejects(t *testing.T) {
	cases := []string{
		`not json`,
		`{"op":"created"}`,
		`{"id":"abc"}`,
	}
	for _, body := range cases {
		if _, err := ExpenseChangeMessageFromJSON([]byte(body)); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}

func TestNewClientInvalidURL(t *testing.T) {
	if _, err := NewClient("not-a-url", "expenses"); err == nil {
		t.Fatalf("expected dial error")
	}
}
