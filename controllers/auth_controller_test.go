package controller_test

import (
	"net/http"
	"testing"
	"time"

	"estatecrm/utils"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	status := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "bob@example.com",
		"password": "password123",
	}, &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens in response")
	}
	if resp.User.Role != "AGENT" {
		t.Fatalf("user role = %q, want AGENT", resp.User.Role)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	var resp struct {
		Message string `json:"message"`
	}

	// Wrong password and unknown email must be indistinguishable.
	status := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "bob@example.com",
		"password": "wrong",
	}, &resp)
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d, want 401", status)
	}
	wrongPassMsg := resp.Message

	status = env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	}, &resp)
	if status != http.StatusUnauthorized {
		t.Fatalf("unknown email: status = %d, want 401", status)
	}
	if resp.Message != wrongPassMsg {
		t.Fatalf("messages differ: %q vs %q", wrongPassMsg, resp.Message)
	}
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)

	_, refresh, err := env.Tokens.GenerateTokenPair(env.Agent)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	status := env.request(t, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refreshToken": refresh,
	}, &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected a fresh access token")
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)

	access := env.token(t, env.Agent)
	status := env.request(t, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refreshToken": access,
	}, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	if status := env.request(t, http.MethodGet, "/auth/me", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", status)
	}

	var me struct {
		Email string `json:"email"`
	}
	status := env.request(t, http.MethodGet, "/auth/me", env.token(t, env.Agent), nil, &me)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if me.Email != "bob@example.com" {
		t.Fatalf("email = %q", me.Email)
	}
}

func TestRegisterAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{
		"name":     "Dana New",
		"email":    "dana@example.com",
		"password": "password123",
	}

	if status := env.request(t, http.MethodPost, "/auth/register", env.token(t, env.Agent), body, nil); status != http.StatusForbidden {
		t.Fatalf("agent register: status = %d, want 403", status)
	}

	var resp struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	status := env.request(t, http.MethodPost, "/auth/register", env.token(t, env.Admin), body, &resp)
	if status != http.StatusCreated {
		t.Fatalf("admin register: status = %d, want 201", status)
	}
	if resp.User.Role != "AGENT" {
		t.Fatalf("default role = %q, want AGENT", resp.User.Role)
	}

	// Duplicate email conflicts.
	if status := env.request(t, http.MethodPost, "/auth/register", env.token(t, env.Admin), body, nil); status != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d, want 409", status)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	cfg := testConfig(t)
	cfg.JWTAccessExpiry = -time.Minute
	expired, _, err := utils.NewTokenManager(cfg).GenerateTokenPair(env.Agent)
	if err != nil {
		t.Fatalf("generate expired token: %v", err)
	}

	if status := env.request(t, http.MethodGet, "/auth/me", expired, nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}
