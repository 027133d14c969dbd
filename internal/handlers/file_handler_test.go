package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio-backend/internal/store"

	"github.com/gofiber/fiber/v3"
)

func passThrough(c fiber.Ctx) error { return c.Next() }

func newFileApp() (*fiber.App, *store.MemoryStore) {
	st := store.NewMemoryStore()
	app := fiber.New()
	NewFileHandler(st).RegisterRoutes(app, passThrough, passThrough)
	return app, st
}

func TestFileRoundTrip(t *testing.T) {
	app, _ := newFileApp()

	payload := []byte("%PDF-1.4 fake document body")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("title", "CV")
	writer.WriteField("category", "documents")
	part, err := writer.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="file"; filename="CV Édité.pdf"`},
		"Content-Type":        {"application/pdf"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	part.Write(payload)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/files/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("Invalid envelope %q: %v", body, err)
	}
	id, _ := envelope.Data["id"].(string)
	if id == "" {
		t.Fatal("Expected a generated id")
	}
	if envelope.Data["mimeType"] != "application/pdf" {
		t.Errorf("Expected stored MIME type, got %v", envelope.Data["mimeType"])
	}

	downloadReq := httptest.NewRequest(http.MethodGet, "/files/"+id+"/download", nil)
	downloadResp, err := app.Test(downloadReq)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if downloadResp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", downloadResp.StatusCode)
	}

	downloaded, err := io.ReadAll(downloadResp.Body)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bytes.Equal(downloaded, payload) {
		t.Errorf("Downloaded bytes differ from the uploaded payload")
	}

	disposition := downloadResp.Header.Get("Content-Disposition")
	if disposition == "" {
		t.Fatal("Expected a Content-Disposition header")
	}
	for _, r := range disposition {
		if r > 127 {
			t.Errorf("Content-Disposition must stay ASCII, got %q", disposition)
		}
	}
	if downloadResp.Header.Get("Content-Type") != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", downloadResp.Header.Get("Content-Type"))
	}
}

func TestFileListHidesPayload(t *testing.T) {
	app, st := newFileApp()

	_, err := st.Create(t.Context(), "files", store.Record{
		"title":    "CV",
		"filename": "cv.pdf",
		"mimeType": "application/pdf",
		"data":     "aGVsbG8=",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/files/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	body, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("Invalid envelope %q: %v", body, err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(envelope.Data))
	}
	if _, exists := envelope.Data[0]["data"]; exists {
		t.Error("List responses must not carry the inline payload")
	}
	if envelope.Data[0]["title"] != "CV" {
		t.Errorf("Expected title CV, got %v", envelope.Data[0]["title"])
	}
}

func TestDownloadUnknownFile(t *testing.T) {
	app, _ := newFileApp()

	req := httptest.NewRequest(http.MethodGet, "/files/unknown/download", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateFileRequiresPayload(t *testing.T) {
	app, _ := newFileApp()

	req := httptest.NewRequest(http.MethodPost, "/files/", bytes.NewReader([]byte(`{"title":"CV"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}
