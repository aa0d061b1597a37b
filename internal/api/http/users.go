package http

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/learnhub/learnhub-backend/internal/auth/middleware"
	"github.com/learnhub/learnhub-backend/internal/rbac"
)

type userPayload struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

func RegisterHandler(db *sql.DB, authSvc *authmw.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FullName string `json:"full_name" validate:"required"`
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required,min=6"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			failServer(w, "Error registering user", err)
			return
		}

		id := "u-" + uuid.NewString()
		_, err = db.ExecContext(r.Context(), `
			INSERT INTO users (id, full_name, email, password_hash, role, status, created_at)
			VALUES ($1, $2, $3, $4, 'user', 'active', $5)
			ON CONFLICT (email) DO NOTHING`,
			id, req.FullName, req.Email, string(hash), time.Now().Unix())
		if err != nil {
			failServer(w, "Error registering user", err)
			return
		}
		// The insert is silent on conflict; confirm we own the row.
		var gotID string
		if err := db.QueryRowContext(r.Context(), `SELECT id FROM users WHERE email=$1`, req.Email).Scan(&gotID); err != nil {
			failServer(w, "Error registering user", err)
			return
		}
		if gotID != id {
			fail(w, http.StatusBadRequest, "User already exists")
			return
		}

		token, err := authSvc.IssueJWT(id, req.Email, "user")
		if err != nil {
			failServer(w, "Error registering user", err)
			return
		}
		ok(w, http.StatusCreated, map[string]any{
			"message": "User registered successfully",
			"token":   token,
			"user":    userPayload{ID: id, FullName: req.FullName, Email: req.Email, Role: "user"},
		})
	}
}

func LoginHandler(db *sql.DB, authSvc *authmw.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		var u userPayload
		var hash string
		row := db.QueryRowContext(r.Context(), `
			SELECT id, full_name, email, password_hash, role, status FROM users WHERE email=$1`, req.Email)
		if err := row.Scan(&u.ID, &u.FullName, &u.Email, &hash, &u.Role, &u.Status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fail(w, http.StatusBadRequest, "Invalid credentials")
				return
			}
			failServer(w, "Error during login", err)
			return
		}
		if u.Status != "active" {
			fail(w, http.StatusForbidden, "Account is inactive or banned")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			fail(w, http.StatusBadRequest, "Invalid credentials")
			return
		}

		token, err := authSvc.IssueJWT(u.ID, u.Email, u.Role)
		if err != nil {
			failServer(w, "Error during login", err)
			return
		}
		u.Status = ""
		ok(w, http.StatusOK, map[string]any{"token": token, "user": u})
	}
}

func MeHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		var u userPayload
		row := db.QueryRowContext(r.Context(), `
			SELECT id, full_name, email, role, status, created_at FROM users WHERE id=$1`, sub)
		if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.Status, &u.CreatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fail(w, http.StatusNotFound, "User not found")
				return
			}
			failServer(w, "Error fetching user data", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"user": u})
	}
}

func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `
			SELECT id, full_name, email, role, status, created_at FROM users ORDER BY created_at`)
		if err != nil {
			failServer(w, "Error fetching users", err)
			return
		}
		defer rows.Close()
		out := []userPayload{}
		for rows.Next() {
			var u userPayload
			if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.Status, &u.CreatedAt); err != nil {
				failServer(w, "Error fetching users", err)
				return
			}
			out = append(out, u)
		}
		ok(w, http.StatusOK, map[string]any{"users": out})
	}
}

// UpdateUserHandler lets a user edit their own profile; admins may edit anyone.
func UpdateUserHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !selfOrAdmin(w, r, id) {
			return
		}
		var req struct {
			FullName string `json:"full_name" validate:"required"`
			Email    string `json:"email" validate:"required,email"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := db.ExecContext(r.Context(), `
			UPDATE users SET full_name=$1, email=$2 WHERE id=$3`, req.FullName, req.Email, id)
		if err != nil {
			failServer(w, "Error updating user", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "User not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "User updated successfully"})
	}
}

func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !selfOrAdmin(w, r, id) {
			return
		}
		var req struct {
			CurrentPassword string `json:"currentPassword" validate:"required"`
			NewPassword     string `json:"newPassword" validate:"required,min=6"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		var stored string
		if err := db.QueryRowContext(r.Context(), `SELECT password_hash FROM users WHERE id=$1`, id).Scan(&stored); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fail(w, http.StatusNotFound, "User not found")
				return
			}
			failServer(w, "Error changing password", err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(stored), []byte(req.CurrentPassword)) != nil {
			fail(w, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
		if err != nil {
			failServer(w, "Error changing password", err)
			return
		}
		if _, err := db.ExecContext(r.Context(), `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), id); err != nil {
			failServer(w, "Error changing password", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Password changed successfully"})
	}
}

func UpdateUserStatusHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Status string `json:"status" validate:"required,oneof=active inactive banned"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := db.ExecContext(r.Context(), `UPDATE users SET status=$1 WHERE id=$2`, req.Status, id)
		if err != nil {
			failServer(w, "Error updating user status", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "User not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "User status updated successfully"})
	}
}

func DeleteUserHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		res, err := db.ExecContext(r.Context(), `DELETE FROM users WHERE id=$1`, id)
		if err != nil {
			failServer(w, "Error deleting user", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "User not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "User deleted successfully"})
	}
}

func selfOrAdmin(w http.ResponseWriter, r *http.Request, id string) bool {
	sub := rbac.SubjectFromContext(r.Context())
	role := rbac.RoleFromContext(r.Context())
	if sub != id && role != "admin" {
		fail(w, http.StatusForbidden, "Unauthorized")
		return false
	}
	return true
}
