package events

import (
	"encoding/json"
	"time"
)

// Entities and actions carried by mutation messages.
const (
	EntityReceipt  = "receipt"
	EntityBudget   = "budget"
	EntityCategory = "category"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// MutationMessage announces that source data of a household changed.
// Consumers use it to invalidate derived-report caches; the message stays
// lightweight on purpose and carries no entity payload.
type MutationMessage struct {
	Entity      string    `json:"entity"`
	Action      string    `json:"action"`
	HouseholdID string    `json:"household_id"`
	EntityID    string    `json:"entity_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewMutation builds a mutation message stamped with the current time.
func NewMutation(entity, action, householdID, entityID string) *MutationMessage {
	return &MutationMessage{
		Entity:      entity,
		Action:      action,
		HouseholdID: householdID,
		EntityID:    entityID,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationFromJSON parses a message from JSON bytes.
func MutationFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
