package types

import "time"

// AuditFields carries the creation, update and soft-delete timestamps
// shared by every persisted entity. A non-nil DeletedAt marks the row
// as logically deleted; it is excluded from active queries but the row
// itself is never removed, so unique constraints keep holding.
type AuditFields struct {
	// CreatedAt is the timestamp when the row was inserted.
	CreatedAt time.Time `json:"datetime_created" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent write to the row.
	UpdatedAt time.Time `json:"-" db:"updated_at"`

	// DeletedAt marks the row as soft-deleted when non-nil.
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// IsDeleted reports whether the entity is soft-deleted.
func (a AuditFields) IsDeleted() bool {
	return a.DeletedAt != nil
}
