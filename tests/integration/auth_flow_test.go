package integration

import (
	"fmt"
	"net/http"
	"testing"

	"cashflow/internal/models"
)

const testPassword = "Sup3rSecret!pass"

func TestAuthFlow_RegisterLoginProfile(t *testing.T) {
	app := setupApp(t)

	// Step 1: Register
	accessToken, userID := app.registerUser(t, "auth@test.com", testPassword)
	if accessToken == "" {
		t.Fatal("expected a non-empty token from registration")
	}
	if userID == "" {
		t.Fatal("expected a user ID")
	}

	// Step 2: Login with same credentials
	loginToken := app.loginUser(t, "auth@test.com", testPassword)
	if loginToken == "" {
		t.Fatal("expected a non-empty token from login")
	}

	// Step 3: Access the profile with the login token
	rec := app.request("GET", "/auth/me", "", loginToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["email"] != "auth@test.com" {
		t.Errorf("expected email auth@test.com, got %v", result["email"])
	}

	// Auth events were recorded along the way.
	var count int64
	app.DB.Model(&models.AuditLog{}).Where("event_type = ?", models.AuditAuthSuccess).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 auth success events (register + login), got %d", count)
	}
}

func TestAuthFlow_RegisterDuplicateEmail(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "dup@test.com", testPassword)

	rec := app.request("POST", "/auth/register",
		fmt.Sprintf(`{"email":"dup@test.com","password":%q,"full_name":"Other"}`, testPassword), "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d: %s", rec.Code, rec.Body.String())
	}
	errObj := parseJSON(t, rec)["error"].(map[string]interface{})
	if errObj["code"] != "DUPLICATE_EMAIL" {
		t.Errorf("expected DUPLICATE_EMAIL, got %v", errObj["code"])
	}
}

func TestAuthFlow_LoginWrongPassword(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "wrong@test.com", testPassword)

	rec := app.request("POST", "/auth/login",
		`{"email":"wrong@test.com","password":"WrongPass1!xx"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}

	// The failure lands in the audit log without an actor.
	var entry models.AuditLog
	if err := app.DB.Where("event_type = ?", models.AuditAuthFailure).First(&entry).Error; err != nil {
		t.Fatalf("expected an auth failure audit event: %v", err)
	}
	if entry.ActorID != nil {
		t.Error("auth failure events must not carry an actor id")
	}
}

func TestAuthFlow_LoginRateLimited(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "limited@test.com", testPassword)

	// The login budget is 5 per window per client.
	body := fmt.Sprintf(`{"email":"limited@test.com","password":%q}`, testPassword)
	for i := 0; i < 5; i++ {
		rec := app.request("POST", "/auth/login", body, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("login %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := app.request("POST", "/auth/login", body, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exhausting the login budget, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header on the rejection")
	}
}

func TestAuthFlow_ChangePassword(t *testing.T) {
	app := setupApp(t)

	token, _ := app.registerUser(t, "rotate@test.com", testPassword)

	rec := app.request("POST", "/auth/change-password",
		fmt.Sprintf(`{"current_password":%q,"new_password":"N3wSecret!word"}`, testPassword), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Old password stops working, new one logs in.
	rec = app.request("POST", "/auth/login",
		fmt.Sprintf(`{"email":"rotate@test.com","password":%q}`, testPassword), "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("old password should be rejected, got %d", rec.Code)
	}
	app.loginUser(t, "rotate@test.com", "N3wSecret!word")
}

func TestAuthFlow_ProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/auth/me"},
		{"POST", "/transactions"},
		{"GET", "/transactions"},
		{"DELETE", "/transactions/some-id"},
		{"GET", "/summary"},
		{"GET", "/categories"},
	} {
		rec := app.request(route.method, route.path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without token, got %d", route.method, route.path, rec.Code)
		}
	}
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/auth/me", "", "")
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected X-Frame-Options on error responses too")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected X-Content-Type-Options header")
	}
}

func TestProfileUpdateFlow(t *testing.T) {
	app := setupApp(t)
	token, userID := app.registerUser(t, "profile@test.com", testPassword)

	rec := app.request("PUT", "/auth/me",
		`{"full_name":"<b>Updated</b> Name","business_name":"New Venture"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile update failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["full_name"] != "Updated Name" {
		t.Errorf("full_name = %v, want markup stripped", result["full_name"])
	}
	if result["business_name"] != "New Venture" {
		t.Errorf("business_name = %v", result["business_name"])
	}

	// The change is visible on the next read and audited as a mutation.
	rec = app.request("GET", "/auth/me", "", token)
	if got := parseJSON(t, rec)["full_name"]; got != "Updated Name" {
		t.Errorf("profile read back full_name = %v", got)
	}

	var count int64
	app.DB.Model(&models.AuditLog{}).
		Where("event_type = ? AND actor_id = ?", models.AuditDataModification, userID).
		Count(&count)
	if count != 1 {
		t.Errorf("expected 1 DATA_MODIFICATION audit row, got %d", count)
	}

	rec = app.request("PUT", "/auth/me", `{}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty update should be rejected, got %d", rec.Code)
	}
}
