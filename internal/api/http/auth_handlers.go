package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coursekit/coursekit-server/internal/apperr"
	"github.com/coursekit/coursekit-server/internal/auth"
	"github.com/coursekit/coursekit-server/internal/notify"
)

const (
	otpPurposeVerify = "email-verify"
	otpPurposeReset  = "password-reset"
)

type AuthDeps struct {
	DB     *sql.DB
	Tokens *auth.Service
	OTP    *auth.OTPStore
	Mailer notify.Mailer
	Log    *zap.Logger
}

// POST /auth/register
func RegisterHandler(d AuthDeps) http.HandlerFunc {
	type req struct {
		Email    string `json:"email" validate:"required,email"`
		Name     string `json:"name" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role" validate:"omitempty,oneof=student teacher"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		role := in.Role
		if role == "" {
			role = "student"
		}
		if _, _, err := getUserByEmail(r.Context(), d.DB, in.Email); err == nil {
			writeErr(w, apperr.Conflict("an account with that email already exists"))
			return
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			writeErr(w, err)
			return
		}
		id := uuid.NewString()
		_, err = d.DB.ExecContext(r.Context(),
			`INSERT INTO users (id, email, name, role, pass_hash, verified, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			id, in.Email, in.Name, role, hash, false, time.Now().Unix())
		if err != nil {
			// The unique index still guards the lost race; anything else is
			// a real store failure and must not read as a duplicate.
			d.Log.Error("user insert failed", zap.String("email", in.Email), zap.Error(err))
			writeErr(w, err)
			return
		}

		code, err := d.OTP.Issue(r.Context(), otpPurposeVerify, in.Email)
		if err != nil {
			d.Log.Warn("otp issue failed", zap.String("email", in.Email), zap.Error(err))
		} else if err := d.Mailer.SendOTP(in.Email, code, "verifying your email"); err != nil {
			d.Log.Warn("otp mail failed", zap.String("email", in.Email), zap.Error(err))
		}
		if err := d.Mailer.SendWelcome(in.Email, in.Name); err != nil {
			d.Log.Warn("welcome mail failed", zap.String("email", in.Email), zap.Error(err))
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id, "email": in.Email, "role": role})
	}
}

// POST /auth/verify
func VerifyEmailHandler(d AuthDeps) http.HandlerFunc {
	type req struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,len=6"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		if err := d.OTP.Verify(r.Context(), otpPurposeVerify, in.Email, in.Code); err != nil {
			writeErr(w, err)
			return
		}
		if _, err := d.DB.ExecContext(r.Context(),
			`UPDATE users SET verified=$1 WHERE email=$2`, true, in.Email); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
	}
}

// POST /auth/login
func LoginHandler(d AuthDeps) http.HandlerFunc {
	type req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		u, hash, err := getUserByEmail(r.Context(), d.DB, in.Email)
		if err != nil || !auth.CheckPassword(hash, in.Password) {
			writeErr(w, apperr.New(apperr.KindUnauth, "invalid credentials"))
			return
		}
		tok, err := d.Tokens.IssueToken(u.ID, u.Role)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": tok, "user": u})
	}
}

// POST /auth/password/forgot
func ForgotPasswordHandler(d AuthDeps) http.HandlerFunc {
	type req struct {
		Email string `json:"email" validate:"required,email"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		// Do not reveal whether the account exists.
		if _, _, err := getUserByEmail(r.Context(), d.DB, in.Email); err == nil {
			code, err := d.OTP.Issue(r.Context(), otpPurposeReset, in.Email)
			if err != nil {
				d.Log.Warn("reset otp issue failed", zap.String("email", in.Email), zap.Error(err))
			} else if err := d.Mailer.SendOTP(in.Email, code, "resetting your password"); err != nil {
				d.Log.Warn("reset mail failed", zap.String("email", in.Email), zap.Error(err))
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// POST /auth/password/reset
func ResetPasswordHandler(d AuthDeps) http.HandlerFunc {
	type req struct {
		Email       string `json:"email" validate:"required,email"`
		Code        string `json:"code" validate:"required,len=6"`
		NewPassword string `json:"new_password" validate:"required,min=8"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		if err := d.OTP.Verify(r.Context(), otpPurposeReset, in.Email, in.Code); err != nil {
			writeErr(w, err)
			return
		}
		hash, err := auth.HashPassword(in.NewPassword)
		if err != nil {
			writeErr(w, err)
			return
		}
		if _, err := d.DB.ExecContext(r.Context(),
			`UPDATE users SET pass_hash=$1 WHERE email=$2`, hash, in.Email); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
	}
}
