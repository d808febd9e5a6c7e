package events

import "testing"

func TestMutationMessageRoundTrip(t *testing.T) {
	msg := NewMutation(EntityReceipt, ActionDeleted, "h1", "r42")
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := MutationFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Entity != EntityReceipt || got.Action != ActionDeleted || got.HouseholdID != "h1" || got.EntityID != "r42" {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp must be stamped")
	}
}

func TestMutationFromJSONInvalid(t *testing.T) {
	if _, err := MutationFromJSON([]byte("{not json")); err == nil {
		t.Error("invalid payload must error")
	}
}
