package types

// MaxLoginLen is the upper bound on login length.
const MaxLoginLen = 200

// User represents an account in the system.
// It contains identity, permission flags, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Login is the unique login name chosen by the user.
	// Uniqueness holds across deleted and non-deleted rows.
	Login string `json:"login" db:"login"`

	// FirstName is the user's display name.
	FirstName string `json:"first_name" db:"first_name"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// TelegramID is the linked chat identifier. It is nil until the
	// user connects a chat and may be set exactly once.
	TelegramID *int64 `json:"-" db:"telegram_id"`

	// IsActive indicates whether the account is usable.
	IsActive bool `json:"is_active" db:"is_active"`

	// IsStaff grants back-office access. It mirrors IsSuperuser at
	// registration time.
	IsStaff bool `json:"is_staff" db:"is_staff"`

	// IsSuperuser grants full administrative rights.
	IsSuperuser bool `json:"-" db:"is_superuser"`

	AuditFields
}

// HasTelegram reports whether a chat identity has been linked.
func (u User) HasTelegram() bool {
	return u.TelegramID != nil
}
