package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/conference-tickets/handlers"
	"github.com/Dosada05/conference-tickets/images"
	"github.com/Dosada05/conference-tickets/models"
	"github.com/Dosada05/conference-tickets/qrgen"
	"github.com/Dosada05/conference-tickets/repositories"
	"github.com/Dosada05/conference-tickets/routes"
	"github.com/Dosada05/conference-tickets/services"
	"github.com/Dosada05/conference-tickets/storage"
)

var ticketIDPattern = regexp.MustCompile(`^TC[0-9A-F]{6}$`)

type testServer struct {
	router *chi.Mux
	repo   repositories.ParticipantRepository
}

func newTestServer(t *testing.T, devMode bool, maxUploadBytes int64) *testServer {
	t.Helper()

	repo := repositories.NewMemoryParticipantRepository()
	files, err := storageForTest(t)
	if err != nil {
		t.Fatalf("failed to build file storage: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registrationService := services.NewRegistrationService(
		repo,
		images.NewProcessor(files),
		qrgen.NewEncoder(files, "Coding Conf 2025", "Austin, TX", "2025-08-23"),
		logger,
	)
	queryService := services.NewQueryService(repo)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Registration: handlers.NewRegistrationHandler(registrationService, maxUploadBytes),
		Participants: handlers.NewParticipantHandler(queryService),
		Files:        handlers.NewFilesHandler(files),
		Health:       handlers.NewHealthHandler(),
		Admin:        handlers.NewAdminHandler(queryService, devMode),
	}, []string{"http://localhost:5173"})

	return &testServer{router: router, repo: repo}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"full_name":       "Ada Lovelace",
		"email":           email,
		"github_username": "@adal",
	}
}

func tinyPNGBase64(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: 30, G: 30, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRegisterEndpoint(t *testing.T) {
	ts := newTestServer(t, false, 500*1024)

	body := registerBody("ada@example.com")
	body["avatar"] = tinyPNGBase64(t)
	rec := ts.do(t, http.MethodPost, "/api/register", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody(t, rec)
	if resp["success"] != true {
		t.Fatalf("expected success=true, got %v", resp["success"])
	}
	ticketID, _ := resp["ticket_id"].(string)
	if !ticketIDPattern.MatchString(ticketID) {
		t.Fatalf("unexpected ticket_id shape: %q", ticketID)
	}

	participant, ok := resp["participant"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected participant object, got %T", resp["participant"])
	}
	if participant["email"] != "ada@example.com" {
		t.Fatalf("unexpected email: %v", participant["email"])
	}
	if participant["github_username"] != "adal" {
		t.Fatalf("expected stripped github username, got %v", participant["github_username"])
	}
	if participant["registration_date"] == nil {
		t.Fatalf("expected registration_date to be set")
	}

	// Сгенерированные файлы раздаются приложением.
	qrName, _ := participant["qr_code_filename"].(string)
	if qrName == "" {
		t.Fatalf("expected qr_code_filename, got %v", participant["qr_code_filename"])
	}
	fileRec := ts.do(t, http.MethodGet, "/qr_codes/"+qrName, nil)
	if fileRec.Code != http.StatusOK {
		t.Fatalf("expected 200 serving %s, got %d", qrName, fileRec.Code)
	}
	if ct := fileRec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}

	avatarName, _ := participant["avatar_filename"].(string)
	if avatarName == "" {
		t.Fatalf("expected avatar_filename, got %v", participant["avatar_filename"])
	}
	avatarRec := ts.do(t, http.MethodGet, "/uploads/"+avatarName, nil)
	if avatarRec.Code != http.StatusOK {
		t.Fatalf("expected 200 serving %s, got %d", avatarName, avatarRec.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t, false, 500*1024)

	if rec := ts.do(t, http.MethodPost, "/api/register", registerBody("ada@example.com")); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first registration, got %d", rec.Code)
	}

	rec := ts.do(t, http.MethodPost, "/api/register", registerBody("  ADA@example.com "))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate email, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "Email already registered" {
		t.Fatalf("unexpected error message: %v", resp["error"])
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	ts := newTestServer(t, false, 500*1024)

	body := registerBody("ada@example.com")
	body["full_name"] = ""
	rec := ts.do(t, http.MethodPost, "/api/register", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "full_name is required" {
		t.Fatalf("unexpected error message: %v", resp["error"])
	}

	body = registerBody("not-an-email")
	rec = ts.do(t, http.MethodPost, "/api/register", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed email, got %d", rec.Code)
	}

	// Точка только после повторного '@' адрес не валидирует.
	body = registerBody("ada@corp@example.com")
	rec = ts.do(t, http.MethodPost, "/api/register", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for doubled-at email, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "Invalid email format" {
		t.Fatalf("unexpected error message: %v", resp["error"])
	}
}

func TestRegisterIgnoresUnknownFields(t *testing.T) {
	ts := newTestServer(t, false, 500*1024)

	body := registerBody("ada@example.com")
	body["newsletter_opt_in"] = "yes"
	rec := ts.do(t, http.MethodPost, "/api/register", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 with extra field, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterMalformedAvatar(t *testing.T) {
	ts := newTestServer(t, false, 500*1024)

	body := registerBody("ada@example.com")
	body["avatar"] = "data:image/png;base64,bm90LWFuLWltYWdl"
	rec := ts.do(t, http.MethodPost, "/api/register", body)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for malformed avatar, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "Failed to process avatar image" {
		t.Fatalf("unexpected error message: %v", resp["error"])
	}

	// Запись не должна быть создана.
	count, err := ts.repo.Count(context.Background())
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no records, got %d", count)
	}
}

func TestRegisterPayloadTooLarge(t *testing.T) {
	ts := newTestServer(t, false, 256)

	body := registerBody("ada@example.com")
	body["avatar"] = strings.Repeat("A", 1024)
	rec := ts.do(t, http.MethodPost, "/api/register", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestParticipantsEndpointPagination(t *testing.T) {
	ts := newTestServer(t, false, 500*1024)
	seedRecords(t, ts.repo, 5)

	rec := ts.do(t, http.MethodGet, "/api/participants?per_page=1000", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["per_page"].(float64) != 100 {
		t.Fatalf("expected per_page clamped to 100, got %v", resp["per_page"])
	}
	if resp["total"].(float64) != 5 {
		t.Fatalf("expected total=5, got %v", resp["total"])
	}

	rec = ts.do(t, http.MethodGet, "/api/participants?page=99&per_page=2", nil)
	resp = decodeBody(t, rec)
	participants := resp["participants"].([]interface{})
	if len(participants) != 0 {
		t.Fatalf("expected empty page beyond range, got %d items", len(participants))
	}
	if resp["pages"].(float64) != 3 {
		t.Fatalf("expected pages=3, got %v", resp["pages"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts := newTestServer(t, false, 500*1024)
	seedRecords(t, ts.repo, 2)

	rec := ts.do(t, http.MethodGet, "/api/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["total_participants"].(float64) != 2 {
		t.Fatalf("expected total_participants=2, got %v", resp["total_participants"])
	}
	for _, key := range []string{"today_registrations", "week_registrations", "last_updated"} {
		if _, ok := resp[key]; !ok {
			t.Fatalf("expected %s in stats response", key)
		}
	}
}

func TestVerifyEndpoint(t *testing.T) {
	ts := newTestServer(t, false, 500*1024)
	seedRecords(t, ts.repo, 1)

	rec := ts.do(t, http.MethodGet, "/api/verify/tc000001", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for lowercase ticket id, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["valid"] != true {
		t.Fatalf("expected valid=true, got %v", resp["valid"])
	}
	if _, ok := resp["verified_at"]; !ok {
		t.Fatalf("expected verified_at in response")
	}

	rec = ts.do(t, http.MethodGet, "/api/verify/TC999999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown ticket, got %d", rec.Code)
	}
	resp = decodeBody(t, rec)
	if resp["valid"] != false {
		t.Fatalf("expected valid=false, got %v", resp["valid"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, false, 500*1024)

	rec := ts.do(t, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["status"] != "healthy" {
		t.Fatalf("expected healthy status, got %v", resp["status"])
	}
}

func TestResetDBRequiresDevMode(t *testing.T) {
	prod := newTestServer(t, false, 500*1024)
	if rec := prod.do(t, http.MethodPost, "/api/reset-db", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 outside dev mode, got %d", rec.Code)
	}

	dev := newTestServer(t, true, 500*1024)
	seedRecords(t, dev.repo, 3)
	if rec := dev.do(t, http.MethodPost, "/api/reset-db", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 in dev mode, got %d", rec.Code)
	}
	count, err := dev.repo.Count(context.Background())
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected wiped store, got %d records", count)
	}
}

func TestUnknownFileAndRoute(t *testing.T) {
	ts := newTestServer(t, false, 500*1024)

	if rec := ts.do(t, http.MethodGet, "/uploads/missing.jpg", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing upload, got %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/qr_codes/missing.png", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing qr code, got %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown endpoint, got %d", rec.Code)
	}
}

func seedRecords(t *testing.T, repo repositories.ParticipantRepository, n int) {
	t.Helper()
	base := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		p := &models.Participant{
			TicketID:         fmt.Sprintf("TC00000%d", i+1),
			FullName:         "Person",
			Email:            fmt.Sprintf("person%d@example.com", i+1),
			GithubUsername:   "person",
			RegistrationDate: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(context.Background(), p); err != nil {
			t.Fatalf("failed to seed participant: %v", err)
		}
	}
}

func storageForTest(t *testing.T) (storage.FileStorage, error) {
	t.Helper()
	return storage.NewLocalStorage(
		filepath.Join(t.TempDir(), "uploads"),
		filepath.Join(t.TempDir(), "qr_codes"),
	)
}
