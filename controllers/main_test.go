package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"estatecrm/config"
	"estatecrm/models"
	"estatecrm/routes"
	"estatecrm/utils"
)

type testEnv struct {
	App    *fiber.App
	DB     *gorm.DB
	Config *config.Config
	Tokens *utils.TokenManager

	Admin      *models.User
	Agent      *models.User
	OtherAgent *models.User
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:      "test",
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 7 * 24 * time.Hour,
		UploadDir:        t.TempDir(),
		MaxFileSize:      5 * 1024 * 1024,
		MaxUploadFiles:   10,
		RateLimitLogin:   100,
		RateLimitAPI:     1000,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := testConfig(t)
	app := fiber.New()
	routes.SetupRoutes(app, db, cfg)

	env := &testEnv{
		App:    app,
		DB:     db,
		Config: cfg,
		Tokens: utils.NewTokenManager(cfg),
	}
	env.Admin = env.createUser(t, "Alice Admin", "alice@example.com", models.RoleAdmin)
	env.Agent = env.createUser(t, "Bob Agent", "bob@example.com", models.RoleAgent)
	env.OtherAgent = env.createUser(t, "Carol Agent", "carol@example.com", models.RoleAgent)
	return env
}

func (e *testEnv) createUser(t *testing.T, name, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := e.DB.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	access, _, err := e.Tokens.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return access
}

// request performs an authenticated JSON request against the test app and
// decodes the response body into out when out is non-nil.
func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.App.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read response: %v", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				t.Fatalf("decode response %s: %v", raw, err)
			}
		}
	}
	return resp.StatusCode
}

func (e *testEnv) createClient(t *testing.T, agent *models.User, status models.ClientStatus) *models.Client {
	t.Helper()
	client := &models.Client{
		FullName:   "Test Client",
		Phone:      "+972500000000",
		Status:     status,
		AssignedTo: agent.ID,
	}
	if err := e.DB.Create(client).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

func (e *testEnv) createDeal(t *testing.T, client *models.Client, agent *models.User, stage models.DealStage) *models.Deal {
	t.Helper()
	deal := &models.Deal{
		ClientID:   client.ID,
		Stage:      stage,
		AssignedTo: agent.ID,
	}
	if err := e.DB.Create(deal).Error; err != nil {
		t.Fatalf("create deal: %v", err)
	}
	return deal
}
