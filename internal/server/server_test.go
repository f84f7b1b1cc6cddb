package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lotworks/recontrack/internal/inventory"
	"github.com/lotworks/recontrack/internal/models"
	"github.com/lotworks/recontrack/internal/vehicle"
	"github.com/lotworks/recontrack/internal/workflow"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Vehicle{}, &models.Detailer{},
		&models.InventoryFile{}, &models.ActivityLog{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	base := t.TempDir()
	store, err := inventory.NewStore(db, filepath.Join(base, "uploads"), filepath.Join(base, "archive"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	router, err := NewRouter(StartOpts{DB: db, Store: store, Dealership: "Test Motors"})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestNewRouter_RequiresDB(t *testing.T) {
	_, err := NewRouter(StartOpts{})
	if err == nil || !strings.Contains(err.Error(), "db is required") {
		t.Fatalf("err = %v, want db is required", err)
	}
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestSystemInfo(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/system/info", "")
	body := decodeBody(t, w)
	if body["dealership"] != "Test Motors" {
		t.Errorf("dealership = %v, want Test Motors", body["dealership"])
	}
	stages, ok := body["stages"].([]any)
	if !ok || len(stages) != len(workflow.Stages) {
		t.Errorf("stages = %v, want %d names", body["stages"], len(workflow.Stages))
	}
}

func TestIndexPage(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	html := w.Body.String()
	for _, want := range []string{"Recontrack", "Test Motors", "New Arrival"} {
		if !strings.Contains(html, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestVehicleCreateAndGet(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/vehicles",
		`{"stockNumber":"T250518A","year":2021,"make":"Honda","model":"CR-V","dateIn":"2025-06-02"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)
	if created["status"] != workflow.StageNewArrival {
		t.Errorf("status = %v, want New Arrival", created["status"])
	}
	if created["progress"] != float64(10) {
		t.Errorf("progress = %v, want 10", created["progress"])
	}

	w = doJSON(t, router, http.MethodGet, "/api/vehicles/T250518A", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	// Duplicate stock number is rejected.
	w = doJSON(t, router, http.MethodPost, "/api/vehicles", `{"stockNumber":"T250518A"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}
}

func TestVehicleGet_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/vehicles/NOPE", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStageComplete(t *testing.T) {
	router, db := newTestRouter(t)
	if _, err := vehicle.Create(db, models.Vehicle{StockNumber: "A1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := doJSON(t, router, http.MethodPost, "/api/vehicles/A1/stages/Detailing/complete", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != workflow.StageDetailing {
		t.Errorf("status = %v, want Detailing", body["status"])
	}
}

func TestStageComplete_InvalidStage(t *testing.T) {
	router, db := newTestRouter(t)
	if _, err := vehicle.Create(db, models.Vehicle{StockNumber: "A1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := doJSON(t, router, http.MethodPost, "/api/vehicles/A1/stages/Paintwork/complete", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeBody(t, w)
	if body["code"] != string(workflow.CodeInvalidStage) {
		t.Errorf("code = %v, want INVALID_STAGE", body["code"])
	}
}

func TestSubStepToggleAndTitle(t *testing.T) {
	router, db := newTestRouter(t)
	if _, err := vehicle.Create(db, models.Vehicle{StockNumber: "A1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := doJSON(t, router, http.MethodPost,
		"/api/vehicles/A1/stages/Mechanical/substeps/email-service/toggle", "")
	if w.Code != http.StatusOK {
		t.Fatalf("toggle status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/vehicles/A1/title/in-house", "")
	if w.Code != http.StatusOK {
		t.Fatalf("title status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != workflow.StageTitle {
		t.Errorf("status = %v, want Title after in-house toggle", body["status"])
	}
}

func TestLotReadyGate(t *testing.T) {
	router, db := newTestRouter(t)
	if _, err := vehicle.Create(db, models.Vehicle{StockNumber: "A1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Fresh vehicle is not eligible.
	w := doJSON(t, router, http.MethodGet, "/api/vehicles/A1/eligibility", "")
	body := decodeBody(t, w)
	if body["eligible"] != false {
		t.Errorf("eligible = %v, want false", body["eligible"])
	}

	w = doJSON(t, router, http.MethodPost, "/api/vehicles/A1/lot-ready", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("lot-ready status = %d, want 409", w.Code)
	}
	body = decodeBody(t, w)
	if body["code"] != string(workflow.CodeIneligible) {
		t.Errorf("code = %v, want INELIGIBLE", body["code"])
	}

	// Meet the gate, then move.
	for _, stage := range []string{workflow.StageMechanical, workflow.StageDetailing, workflow.StagePhotos} {
		if _, err := vehicle.CompleteStage(db, "A1", stage, ""); err != nil {
			t.Fatalf("CompleteStage(%s): %v", stage, err)
		}
	}
	if _, err := vehicle.ToggleTitleInHouse(db, "A1"); err != nil {
		t.Fatalf("ToggleTitleInHouse: %v", err)
	}

	w = doJSON(t, router, http.MethodPost, "/api/vehicles/A1/lot-ready", "")
	if w.Code != http.StatusOK {
		t.Fatalf("lot-ready status = %d, body %s", w.Code, w.Body.String())
	}
	body = decodeBody(t, w)
	if body["status"] != workflow.StageLotReady {
		t.Errorf("status = %v, want Lot Ready", body["status"])
	}
}

func TestVehiclePatch(t *testing.T) {
	router, db := newTestRouter(t)
	if _, err := vehicle.Create(db, models.Vehicle{StockNumber: "A1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := doJSON(t, router, http.MethodPatch, "/api/vehicles/A1", `{"assignedDetailer":"Marcus"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["assignedDetailer"] != "Marcus" {
		t.Errorf("assignedDetailer = %v, want Marcus", body["assignedDetailer"])
	}

	w = doJSON(t, router, http.MethodPatch, "/api/vehicles/A1", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty patch status = %d, want 400", w.Code)
	}
}

func TestDetailerCRUD(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/detailers", `{"name":"Marcus","phone":"555-0100"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)
	id := int(created["ID"].(float64))

	w = doJSON(t, router, http.MethodGet, "/api/detailers", "")
	var list []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}

	w = doJSON(t, router, http.MethodPut, "/api/detailers/"+strconv.Itoa(id), `{"active":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodDelete, "/api/detailers/"+strconv.Itoa(id), "")
	if w.Code != http.StatusOK {
		t.Fatalf("remove status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/detailers/999", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("remove missing status = %d, want 404", w.Code)
	}
}

const uploadCSV = `Stock #,VIN,Year,Make,Model,Odometer
T250518A,1HGCM82633A004352,2021,Honda,CR-V,"42,188"
T250519B,2FMDK48C57BB12345,2019,Ford,Edge,60112
`

func TestInventoryUpload(t *testing.T) {
	router, _ := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "export.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(uploadCSV)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["created"] != float64(2) {
		t.Errorf("created = %v, want 2", body["created"])
	}

	// The upload becomes the current inventory file.
	w = doJSON(t, router, http.MethodGet, "/api/inventory/current", "")
	if w.Code != http.StatusOK {
		t.Fatalf("current status = %d", w.Code)
	}

	// And the vehicles are queryable.
	w = doJSON(t, router, http.MethodGet, "/api/vehicles?make=Honda", "")
	var vehicles []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &vehicles); err != nil {
		t.Fatalf("decode vehicles: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0]["stockNumber"] != "T250518A" {
		t.Errorf("filtered vehicles = %v, want the Honda only", vehicles)
	}
}

func TestInventoryCurrent_NoneYet(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/inventory/current", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestExportCSV(t *testing.T) {
	router, db := newTestRouter(t)
	if _, err := vehicle.Create(db, models.Vehicle{StockNumber: "A1", Make: "Honda"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := doJSON(t, router, http.MethodGet, "/api/export/csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Errorf("content-type = %q, want text/csv", ct)
	}
	if !strings.Contains(w.Body.String(), "A1") {
		t.Error("export missing vehicle row")
	}
}

func TestSSE_Connected(t *testing.T) {
	router, _ := newTestRouter(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q, want text/event-stream", ct)
	}
	if !strings.Contains(w.Body.String(), "connected") {
		t.Errorf("body = %q, want connected event", w.Body.String())
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	data, err := templatesFS.ReadFile("templates/layout.html")
	if err != nil {
		t.Fatalf("layout.html not embedded: %v", err)
	}
	if !strings.Contains(string(data), "Recontrack") {
		t.Error("layout.html does not contain 'Recontrack'")
	}
}
