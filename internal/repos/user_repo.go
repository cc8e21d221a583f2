package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"shopfront/internal/domain"
)

// UserRepo stores back office users and which sid each one is signed in on.
type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT id,email,name,password_hash,role FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sessions(id,user_id,last_seen)
		VALUES(?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `
		SELECT u.id,u.email,u.name,u.password_hash,u.role
		FROM sessions s
		JOIN users u ON u.id=s.user_id
		WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
