package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	api "github.com/coursekit/coursekit-server/internal/api/http"
	"github.com/coursekit/coursekit-server/internal/auth"
	"github.com/coursekit/coursekit-server/internal/db"
	"github.com/coursekit/coursekit-server/internal/notify"
)

func authDeps(t *testing.T, dsn string) api.AuthDeps {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	// OTP issue failures (no reachable redis here) are logged, not fatal.
	otp := auth.NewOTPStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), time.Minute)
	return api.AuthDeps{
		DB:     dbh,
		Tokens: auth.NewService("test-secret"),
		OTP:    otp,
		Mailer: notify.NewNoopMailer(nil),
		Log:    zap.NewNop(),
	}
}

func register(t *testing.T, h http.HandlerFunc, email string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"name":     "Test User",
		"password": "long-enough-pass",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	d := authDeps(t, "file:authdup?mode=memory&cache=shared")
	h := api.RegisterHandler(d)

	if rec := register(t, h, "dup@example.com"); rec.Code != http.StatusCreated {
		t.Fatalf("first register: status %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := register(t, h, "dup@example.com"); rec.Code != http.StatusConflict {
		t.Fatalf("second register: status %d, want 409", rec.Code)
	}
}

func TestRegisterStoreFailureIsNotAConflict(t *testing.T) {
	d := authDeps(t, "file:authdown?mode=memory&cache=shared")
	h := api.RegisterHandler(d)
	d.DB.Close()

	rec := register(t, h, "new@example.com")
	if rec.Code == http.StatusConflict {
		t.Fatalf("store failure reported as duplicate: %s", rec.Body.String())
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}
}
