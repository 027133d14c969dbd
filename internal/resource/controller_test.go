package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portfolio-backend/internal/storage"
	"portfolio-backend/internal/store"

	"github.com/gofiber/fiber/v3"
)

func passThrough(c fiber.Ctx) error { return c.Next() }

type testEnv struct {
	app      *fiber.App
	store    *store.MemoryStore
	uploader *storage.MemoryUploader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := store.NewMemoryStore()
	uploader := storage.NewMemoryUploader()

	app := fiber.New()
	for _, def := range Definitions(st, uploader) {
		NewController(def, st, uploader).RegisterRoutes(app, passThrough, passThrough)
	}

	return &testEnv{app: app, store: st, uploader: uploader}
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("Invalid JSON envelope %q: %v", body, err)
	}
	return envelope
}

func TestCreateAndGetProject(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"title":"Portfolio","description":"My site","technologies":["Go","React"]}`
	req := httptest.NewRequest(http.MethodPost, "/projects/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	envelope := decodeEnvelope(t, resp)
	if envelope["success"] != true {
		t.Fatalf("Expected success, got %v", envelope)
	}
	data := envelope["data"].(map[string]any)
	id, _ := data["id"].(string)
	if id == "" {
		t.Fatal("Expected a generated id")
	}
	if techs, ok := data["technologies"].([]any); !ok || len(techs) != 2 {
		t.Errorf("Expected technologies stored as an array, got %v", data["technologies"])
	}

	getReq := httptest.NewRequest(http.MethodGet, "/projects/"+id, nil)
	getResp, err := env.app.Test(getReq)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", getResp.StatusCode)
	}
	got := decodeEnvelope(t, getResp)["data"].(map[string]any)
	if got["title"] != "Portfolio" {
		t.Errorf("Expected title Portfolio, got %v", got["title"])
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/projects/", strings.NewReader(`{"title":"no description"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}
	envelope := decodeEnvelope(t, resp)
	if envelope["success"] != false {
		t.Errorf("Expected failure envelope, got %v", envelope)
	}
}

func TestGetUnknownID(t *testing.T) {
	env := newTestEnv(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		var body io.Reader
		if method == http.MethodPut {
			body = strings.NewReader(`{"title":"x"}`)
		}
		req := httptest.NewRequest(method, "/projects/unknown-id", body)
		if method == http.MethodPut {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := env.app.Test(req)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", method, resp.StatusCode)
		}
	}
}

func TestUpdateMergesFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.store.Create(ctx, "skills", store.Record{"name": "Go", "level": 70, "category": "backend"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/skills/"+created.ID(), strings.NewReader(`{"level":95}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	data := decodeEnvelope(t, resp)["data"].(map[string]any)
	if data["level"].(float64) != 95 {
		t.Errorf("Expected level 95, got %v", data["level"])
	}
	if data["category"] != "backend" {
		t.Errorf("Expected untouched category to survive, got %v", data["category"])
	}
}

func TestListEmpty(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/testimonials/", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	envelope := decodeEnvelope(t, resp)
	if envelope["success"] != true {
		t.Errorf("Expected success envelope, got %v", envelope)
	}
}

func TestExperiencesSortedByStartDateDesc(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, startDate := range []string{"2019-01-01", "2023-06-01", "2021-03-01"} {
		_, err := env.store.Create(ctx, "experiences", store.Record{
			"titleFr":      "Dev",
			"titleEn":      "Dev",
			"organization": "Acme",
			"startDate":    startDate,
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/experiences/", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data := decodeEnvelope(t, resp)["data"].([]any)
	want := []string{"2023-06-01", "2021-03-01", "2019-01-01"}
	for i, item := range data {
		rec := item.(map[string]any)
		if rec["startDate"] != want[i] {
			t.Errorf("Position %d: expected %s, got %v", i, want[i], rec["startDate"])
		}
	}
}

func TestMultipartCreateUploadsCover(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("title", "Portfolio")
	writer.WriteField("description", "My site")
	writer.WriteField("technologies", `["Go","React"]`)
	part, err := writer.CreateFormFile("image", "cover.png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	part.Write([]byte("png-bytes"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/projects/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	data := decodeEnvelope(t, resp)["data"].(map[string]any)
	image, ok := data["image"].(map[string]any)
	if !ok {
		t.Fatalf("Expected an uploaded image handle, got %v", data["image"])
	}
	if image["url"] == "" || image["publicId"] == "" {
		t.Errorf("Expected url and publicId, got %v", image)
	}
	if techs, ok := data["technologies"].([]any); !ok || len(techs) != 2 {
		t.Errorf("Expected JSON-encoded technologies decoded to an array, got %v", data["technologies"])
	}

	if len(env.uploader.Objects) != 1 {
		t.Errorf("Expected 1 stored object, got %d", len(env.uploader.Objects))
	}
}

func TestDeleteRemovesRemoteAssets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.store.Create(ctx, "projects", store.Record{
		"title":       "Portfolio",
		"description": "My site",
		"image":       map[string]any{"url": "memory://projects/cover.png", "publicId": "projects/cover.png"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/projects/"+created.ID(), nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	if len(env.uploader.Deleted) != 1 || env.uploader.Deleted[0] != "projects/cover.png" {
		t.Errorf("Expected the cover asset to be deleted, got %v", env.uploader.Deleted)
	}

	if _, err := env.store.Get(ctx, "projects", created.ID()); err == nil {
		t.Error("Expected the record to be gone")
	}
}

func TestMediaUpdateDeletesReplacedAsset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.store.Create(ctx, "media", store.Record{
		"title":    "Demo",
		"type":     "image",
		"url":      "memory://media/old.png",
		"publicId": "media/old.png",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "new.png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	part.Write([]byte("new-png-bytes"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPut, "/media/"+created.ID(), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	deletedOld := false
	for _, publicID := range env.uploader.Deleted {
		if publicID == "media/old.png" {
			deletedOld = true
		}
	}
	if !deletedOld {
		t.Errorf("Expected replaced asset media/old.png to be deleted, deletions: %v", env.uploader.Deleted)
	}

	data := decodeEnvelope(t, resp)["data"].(map[string]any)
	newID, _ := data["publicId"].(string)
	if newID == "" || newID == "media/old.png" {
		t.Errorf("Expected the record to point at the new asset, got %v", data["publicId"])
	}
	if _, stored := env.uploader.Objects[newID]; !stored {
		t.Errorf("Expected the new asset %s to be stored", newID)
	}
}

func TestMediaDeleteRemovesAsset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.store.Create(ctx, "media", store.Record{
		"title":    "Demo",
		"type":     "image",
		"url":      "memory://media/shot.png",
		"publicId": "media/shot.png",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/media/"+created.ID(), nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	if len(env.uploader.Deleted) != 1 || env.uploader.Deleted[0] != "media/shot.png" {
		t.Errorf("Expected the flattened asset to be deleted, got %v", env.uploader.Deleted)
	}
}

func TestSkillDeleteCascadesToMedia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	skill, err := env.store.Create(ctx, "skills", store.Record{"name": "Go", "level": 80})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	_, err = env.store.Create(ctx, "media", store.Record{
		"title":    "shot.png",
		"type":     "image",
		"skillId":  skill.ID(),
		"publicId": "media/shot.png",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/skills/"+skill.ID(), nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	linked, err := env.store.FindByField(ctx, "media", "skillId", skill.ID())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(linked) != 0 {
		t.Errorf("Expected linked media to be cascade-deleted, got %d left", len(linked))
	}
}

func TestCurrentExperienceClearsEndDate(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"titleFr":"Dev","titleEn":"Dev","organization":"Acme","startDate":"2024-01-01","endDate":"2024-06-01","current":true}`
	req := httptest.NewRequest(http.MethodPost, "/experiences/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	data := decodeEnvelope(t, resp)["data"].(map[string]any)
	if data["endDate"] != nil {
		t.Errorf("Expected endDate cleared while current, got %v", data["endDate"])
	}
}
