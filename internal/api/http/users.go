package http

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/coursekit/coursekit-server/internal/apperr"
	"github.com/coursekit/coursekit-server/internal/rbac"
)

type userRow struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

func getUserByEmail(ctx context.Context, db *sql.DB, email string) (userRow, string, error) {
	var u userRow
	var hash string
	err := db.QueryRowContext(ctx,
		`SELECT id, email, name, role, verified, pass_hash FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Verified, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return userRow{}, "", apperr.NotFound("no account for %s", email)
	}
	return u, hash, err
}

func getUser(ctx context.Context, db *sql.DB, id string) (userRow, error) {
	var u userRow
	err := db.QueryRowContext(ctx,
		`SELECT id, email, name, role, verified FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Verified)
	if errors.Is(err, sql.ErrNoRows) {
		return userRow{}, apperr.NotFound("user %s not found", id)
	}
	return u, err
}

// GET /users/me
func MeHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := getUser(r.Context(), db, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// GET /users?role=  (admin)
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		if role == "" {
			rows, err = db.QueryContext(r.Context(),
				`SELECT id, email, name, role, verified FROM users ORDER BY email`)
		} else {
			rows, err = db.QueryContext(r.Context(),
				`SELECT id, email, name, role, verified FROM users WHERE role=$1 ORDER BY email`, role)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		defer rows.Close()

		out := []userRow{}
		for rows.Next() {
			var u userRow
			if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Verified); err != nil {
				writeErr(w, err)
				return
			}
			out = append(out, u)
		}
		writeJSON(w, http.StatusOK, out)
	}
}
