package kernel

// DefaultUserID is the user seeded by the default schema.
const DefaultUserID int64 = 1

// Session identifies who a call runs as. Every kernel operation takes one
// explicitly.
type Session struct {
	UserID int64
}

// DefaultSession runs as DefaultUserID.
func DefaultSession() Session {
	return Session{UserID: DefaultUserID}
}
