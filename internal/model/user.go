package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column.  Handlers define separate
// response types with JSON tags; these structs are used internally by the
// repository layer.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique display name.
//  Email        – unique email address, natural key for login lookup.
//  PasswordHash – bcrypt hashed password.
//  IsSensei     – whether the user has course-authoring privileges.
//  IsVerified   – whether the email address has been confirmed.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	IsSensei     bool      // users.is_sensei
	IsVerified   bool      // users.is_verified
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// VerificationCode models a row in `verification_codes`.  One active code
// is expected per outstanding request; rows are deleted on successful
// verification or by the opportunistic expiry sweep.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user awaiting verification.
//  Code      – 6-character alphanumeric code sent by mail.
//  CreatedAt – timestamp of creation.
//  ExpiresAt – creation time plus fifteen minutes.
type VerificationCode struct {
	ID        uint64    // verification_codes.id
	UserID    uint64    // verification_codes.user_id
	Code      string    // verification_codes.code
	CreatedAt time.Time // verification_codes.created_at
	ExpiresAt time.Time // verification_codes.expires_at
}

// ResetToken models a row in `reset_tokens`.  The token value is itself a
// signed JWT, so its cryptographic validity can be checked without the
// table; the row exists so an issued token can be invalidated explicitly.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who requested the reset.
//  Token     – opaque signed token value mailed to the user.
//  CreatedAt – timestamp of creation.
//  ExpiresAt – creation time plus fifteen minutes.
type ResetToken struct {
	ID        uint64    // reset_tokens.id
	UserID    uint64    // reset_tokens.user_id
	Token     string    // reset_tokens.token
	CreatedAt time.Time // reset_tokens.created_at
	ExpiresAt time.Time // reset_tokens.expires_at
}
