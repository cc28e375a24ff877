//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	token := registerAndLogin(t, "Reg Tester", "reg-tester@example.com", "long enough password")
	if token == "" {
		t.Fatal("expected a non-empty token")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	req := registerRequest{
		Name:     "Dup Tester",
		Email:    "dup-tester@example.com",
		Password: "long enough password",
	}

	resp := doPost(t, "/api/auth/register", req, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", resp.StatusCode)
	}

	resp = doPost(t, "/api/auth/register", req, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d", resp.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	registerAndLogin(t, "Pwd Tester", "pwd-tester@example.com", "long enough password")

	resp := doPost(t, "/api/auth/login", loginRequest{
		Email:    "pwd-tester@example.com",
		Password: "not the password",
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestListUsersRequiresAdmin(t *testing.T) {
	token := registerAndLogin(t, "Plain User", "plain-user@example.com", "long enough password")

	resp := doGet(t, "/api/users", token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	adminToken := login(t, adminEmail, adminPassword)
	resp2 := doGet(t, "/api/users", adminToken)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("admin list users: expected 200, got %d", resp2.StatusCode)
	}

	users := decodeJSON[[]userResponse](t, resp2)
	if len(users) == 0 {
		t.Fatal("expected at least the admin account")
	}
}
