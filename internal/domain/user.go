package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is a back office account; shoppers never have one.
type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
