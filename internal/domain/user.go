package domain

type ContextKey string

const UserContextKey ContextKey = "user"

const RoleAdmin = "admin"

// User is the staff identity carried by the upstream-issued JWT. The
// gateway never persists users; only the token claims matter here.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
