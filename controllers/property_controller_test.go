package controller_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"estatecrm/models"
)

func TestCreateAndFilterProperties(t *testing.T) {
	env := newTestEnv(t)

	var created models.Property
	status := env.request(t, http.MethodPost, "/properties", env.token(t, env.Agent), map[string]interface{}{
		"title":   "3br on Rothschild",
		"address": "Rothschild Blvd 10, Tel Aviv",
		"price":   2500000.0,
		"rooms":   3,
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if created.Status != models.PropertyActive || created.Currency != models.CurrencyILS {
		t.Fatalf("defaults = %s/%s, want ACTIVE/ILS", created.Status, created.Currency)
	}

	env.request(t, http.MethodPost, "/properties", env.token(t, env.Agent), map[string]interface{}{
		"title":    "Studio in Florentin",
		"address":  "Florentin St 5, Tel Aviv",
		"price":    900000.0,
		"rooms":    1,
		"currency": "USD",
	}, nil)

	var list struct {
		Data  []models.Property `json:"data"`
		Total int64             `json:"total"`
	}
	env.request(t, http.MethodGet, "/properties?minRooms=2", env.token(t, env.Agent), nil, &list)
	if list.Total != 1 || list.Data[0].Title != "3br on Rothschild" {
		t.Fatalf("minRooms filter returned %d properties", list.Total)
	}

	env.request(t, http.MethodGet, "/properties?search=florentin", env.token(t, env.Agent), nil, &list)
	if list.Total != 1 || list.Data[0].Title != "Studio in Florentin" {
		t.Fatalf("search returned %d properties", list.Total)
	}
}

func TestCreatePropertyRejectsNonPositivePrice(t *testing.T) {
	env := newTestEnv(t)

	status := env.request(t, http.MethodPost, "/properties", env.token(t, env.Agent), map[string]interface{}{
		"title":   "Free apartment",
		"address": "Nowhere St 1, Haifa",
		"price":   0,
	}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func uploadRequest(t *testing.T, path, token string, files map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, contentType := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photos"; filename="%s"`, name))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte("fake image bytes")); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest(http.MethodPost, path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func createProperty(t *testing.T, env *testEnv) *models.Property {
	t.Helper()
	property := &models.Property{
		Title:    "Penthouse",
		Address:  "Hayarkon St 99, Tel Aviv",
		Price:    5000000,
		Currency: models.CurrencyILS,
		Status:   models.PropertyActive,
	}
	if err := env.DB.Create(property).Error; err != nil {
		t.Fatal(err)
	}
	return property
}

func TestUploadPhotos(t *testing.T) {
	env := newTestEnv(t)
	property := createProperty(t, env)

	req := uploadRequest(t, "/properties/"+property.ID+"/photos", env.token(t, env.Agent), map[string]string{
		"front.jpg": "image/jpeg",
		"back.png":  "image/png",
	})
	resp, err := env.App.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var photos []models.PropertyPhoto
	if err := env.DB.Where("property_id = ?", property.ID).Find(&photos).Error; err != nil {
		t.Fatal(err)
	}
	if len(photos) != 2 {
		t.Fatalf("photo rows = %d, want 2", len(photos))
	}
	for _, photo := range photos {
		if !strings.HasPrefix(photo.URL, "/uploads/") {
			t.Fatalf("photo url = %q", photo.URL)
		}
		stored := filepath.Join(env.Config.UploadDir, filepath.Base(photo.URL))
		if _, err := os.Stat(stored); err != nil {
			t.Fatalf("stored file missing: %v", err)
		}
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	property := createProperty(t, env)

	req := uploadRequest(t, "/properties/"+property.ID+"/photos", env.token(t, env.Agent), map[string]string{
		"contract.pdf": "application/pdf",
	})
	resp, err := env.App.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUploadRejectsTooManyFiles(t *testing.T) {
	env := newTestEnv(t)
	property := createProperty(t, env)

	files := make(map[string]string, 11)
	for i := 0; i < 11; i++ {
		files[fmt.Sprintf("photo-%d.png", i)] = "image/png"
	}
	req := uploadRequest(t, "/properties/"+property.ID+"/photos", env.token(t, env.Agent), files)
	resp, err := env.App.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDeletePhoto(t *testing.T) {
	env := newTestEnv(t)
	property := createProperty(t, env)

	photo := models.PropertyPhoto{PropertyID: property.ID, URL: "/uploads/gone.png"}
	if err := env.DB.Create(&photo).Error; err != nil {
		t.Fatal(err)
	}

	status := env.request(t, http.MethodDelete, "/properties/"+property.ID+"/photos/"+photo.ID, env.token(t, env.Agent), nil, nil)
	if status != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", status)
	}

	var count int64
	env.DB.Model(&models.PropertyPhoto{}).Where("id = ?", photo.ID).Count(&count)
	if count != 0 {
		t.Fatal("photo row should be gone")
	}
}

func TestDeletePropertyAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	property := createProperty(t, env)

	if status := env.request(t, http.MethodDelete, "/properties/"+property.ID, env.token(t, env.Agent), nil, nil); status != http.StatusForbidden {
		t.Fatalf("agent delete: status = %d, want 403", status)
	}
	if status := env.request(t, http.MethodDelete, "/properties/"+property.ID, env.token(t, env.Admin), nil, nil); status != http.StatusNoContent {
		t.Fatalf("admin delete: status = %d, want 204", status)
	}
}
