package types

// Message is a text record owned by a user. It is immutable after
// creation except for soft deletion.
type Message struct {
	ID      int    `json:"id" db:"id"`
	Text    string `json:"text" db:"text"`
	OwnerID int    `json:"owner" db:"owner_id"`

	AuditFields
}
