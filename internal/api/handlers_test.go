package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"caredesk.io/patientms/internal/patient"
	"caredesk.io/patientms/internal/store"
)

func seedRouter(t *testing.T, coll patient.Collection) (*mux.Router, *store.FileStore) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "patients.json")
	fs := store.NewFileStore(path)
	if err := fs.Save(context.Background(), coll); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	return SetupRoutes(fs), fs
}

func johnDoe() patient.Collection {
	return patient.Collection{
		"P001": {Name: "John Doe", City: "NY", Age: 30, Gender: "male", Height: 1.75, Weight: 70},
	}
}

func doRequest(router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndAbout(t *testing.T) {
	router, _ := seedRouter(t, patient.Collection{})

	tests := []struct {
		path     string
		expected string
	}{
		{"/", HealthMessage},
		{"/about", AboutMessage},
	}
	for _, tt := range tests {
		rr := doRequest(router, "GET", tt.path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.path, rr.Code)
		}
		body := decodeBody[map[string]string](t, rr)
		if body["message"] != tt.expected {
			t.Errorf("%s: expected message %q, got %q", tt.path, tt.expected, body["message"])
		}
	}
}

func TestGetPatientComputedFields(t *testing.T) {
	router, _ := seedRouter(t, johnDoe())

	// Lower-case id with whitespace normalizes to the stored key
	rr := doRequest(router, "GET", "/patient/p001", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	v := decodeBody[patient.View](t, rr)
	if v.ID != "P001" {
		t.Errorf("Expected id P001, got %q", v.ID)
	}
	if v.BMI != 22.86 {
		t.Errorf("Expected bmi 22.86, got %v", v.BMI)
	}
	if v.Verdict != patient.VerdictNormal {
		t.Errorf("Expected verdict %q, got %q", patient.VerdictNormal, v.Verdict)
	}
}

func TestGetPatientNotFound(t *testing.T) {
	router, _ := seedRouter(t, johnDoe())

	rr := doRequest(router, "GET", "/patient/P999", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rr.Code)
	}
	body := decodeBody[ErrorResponse](t, rr)
	if body.Detail != "Patient not found" {
		t.Errorf("Expected detail 'Patient not found', got %q", body.Detail)
	}
}

func TestViewIncludesComputedFields(t *testing.T) {
	router, _ := seedRouter(t, johnDoe())

	rr := doRequest(router, "GET", "/view", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	views := decodeBody[map[string]patient.View](t, rr)
	v, ok := views["P001"]
	if !ok {
		t.Fatalf("Expected P001 in view, got %v", views)
	}
	if v.BMI != 22.86 || v.Verdict != patient.VerdictNormal {
		t.Errorf("Computed fields missing from view: %+v", v)
	}
}

func TestCreateRoundTrip(t *testing.T) {
	router, _ := seedRouter(t, patient.Collection{})

	req := CreatePatientRequest{
		ID: " p002 ", Name: "Jane Roe", City: "Boston",
		Age: 28, Gender: "female", Height: 1.60, Weight: 48,
	}
	rr := doRequest(router, "POST", "/create", req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody[PatientResponse](t, rr)
	if resp.Message != "Patient created successfully" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	if resp.Patient.ID != "P002" {
		t.Errorf("Expected normalized id P002, got %q", resp.Patient.ID)
	}

	// Fetching it back returns the same field values
	rr = doRequest(router, "GET", "/patient/P002", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 after create, got %d", rr.Code)
	}
	v := decodeBody[patient.View](t, rr)
	if v.Name != req.Name || v.City != req.City || v.Age != req.Age ||
		v.Gender != req.Gender || v.Height != req.Height || v.Weight != req.Weight {
		t.Errorf("Round trip mismatch: sent %+v, got %+v", req, v)
	}
	if v.BMI != 18.75 {
		t.Errorf("Expected bmi 18.75, got %v", v.BMI)
	}
}

func TestCreateConflictLeavesRecordUnchanged(t *testing.T) {
	router, _ := seedRouter(t, johnDoe())

	req := CreatePatientRequest{
		ID: "p001", Name: "Impostor", City: "LA",
		Age: 99, Gender: "male", Height: 1.80, Weight: 80,
	}
	rr := doRequest(router, "POST", "/create", req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
	body := decodeBody[ErrorResponse](t, rr)
	if body.Detail != "Patient ID already exists" {
		t.Errorf("Expected duplicate-id detail, got %q", body.Detail)
	}

	// Existing record untouched
	rr = doRequest(router, "GET", "/patient/P001", nil)
	v := decodeBody[patient.View](t, rr)
	if v.Name != "John Doe" || v.Age != 30 {
		t.Errorf("Conflicting create modified the record: %+v", v)
	}
}

func TestCreateValidationFailure(t *testing.T) {
	router, _ := seedRouter(t, patient.Collection{})

	req := CreatePatientRequest{
		ID: "P003", Name: "X", City: "Boston",
		Age: -1, Gender: "robot", Height: 1.70, Weight: 60,
	}
	rr := doRequest(router, "POST", "/create", req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody[ErrorResponse](t, rr)
	if len(body.Fields) != 3 {
		t.Fatalf("Expected 3 failed fields (name, age, gender), got %v", body.Fields)
	}

	// Nothing was created
	rr = doRequest(router, "GET", "/patient/P003", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Invalid create persisted a record, got %d", rr.Code)
	}
}

func TestCreateInvalidJSON(t *testing.T) {
	router, _ := seedRouter(t, patient.Collection{})

	req := httptest.NewRequest("POST", "/create", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
	body := decodeBody[ErrorResponse](t, rr)
	if body.Detail != "Invalid JSON format" {
		t.Errorf("Expected invalid JSON detail, got %q", body.Detail)
	}
}

func TestUpdatePartialPreservesOtherFields(t *testing.T) {
	router, _ := seedRouter(t, johnDoe())

	rr := doRequest(router, "PUT", "/edit/p001", map[string]any{"age": 40})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody[PatientResponse](t, rr)
	v := resp.Patient
	if v.Age != 40 {
		t.Errorf("Expected age 40, got %d", v.Age)
	}
	if v.Name != "John Doe" || v.City != "NY" || v.Gender != "male" ||
		v.Height != 1.75 || v.Weight != 70 {
		t.Errorf("Partial update modified other fields: %+v", v)
	}
	if v.BMI != 22.86 || v.Verdict != patient.VerdictNormal {
		t.Errorf("Computed fields not recomputed: %+v", v)
	}
}

func TestUpdateEmptyBodyIsNoop(t *testing.T) {
	router, _ := seedRouter(t, johnDoe())

	rr := doRequest(router, "PUT", "/edit/P001", map[string]any{})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	v := decodeBody[PatientResponse](t, rr).Patient
	if v.Name != "John Doe" || v.Age != 30 {
		t.Errorf("Empty update changed the record: %+v", v)
	}
}

func TestUpdateValidationFailure(t *testing.T) {
	router, _ := seedRouter(t, johnDoe())

	rr := doRequest(router, "PUT", "/edit/P001", map[string]any{"height": -2})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", rr.Code, rr.Body.String())
	}

	// Record unchanged
	rr = doRequest(router, "GET", "/patient/P001", nil)
	v := decodeBody[patient.View](t, rr)
	if v.Height != 1.75 {
		t.Errorf("Failed update persisted a change: %+v", v)
	}
}

func TestUpdateNotFound(t *testing.T) {
	router, _ := seedRouter(t, johnDoe())

	rr := doRequest(router, "PUT", "/edit/P999", map[string]any{"age": 40})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rr.Code)
	}
}

func TestDeleteThenGet(t *testing.T) {
	router, _ := seedRouter(t, johnDoe())

	rr := doRequest(router, "DELETE", "/delete/P001", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	body := decodeBody[map[string]string](t, rr)
	if body["message"] != "Patient deleted successfully" {
		t.Errorf("Unexpected message %q", body["message"])
	}

	rr = doRequest(router, "GET", "/patient/P001", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rr.Code)
	}

	// Deleting again is NotFound, never a success
	rr = doRequest(router, "DELETE", "/delete/P001", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on repeat delete, got %d", rr.Code)
	}
}

// countingStore records how often the handlers touch storage.
type countingStore struct {
	loads int
	saves int
}

func (cs *countingStore) Load(ctx context.Context, v any) error {
	cs.loads++
	return nil
}

func (cs *countingStore) Save(ctx context.Context, v any) error {
	cs.saves++
	return nil
}

func TestSortInvalidParamsNeverTouchStorage(t *testing.T) {
	cs := &countingStore{}
	router := SetupRoutes(cs)

	tests := []struct {
		name string
		path string
	}{
		{"Unsupported field", "/sort?sort_by=name&order=asc"},
		{"Unsupported order", "/sort?sort_by=bmi&order=up"},
		{"Missing field", "/sort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(router, "GET", tt.path, nil)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rr.Code)
			}
			body := decodeBody[ErrorResponse](t, rr)
			if body.Detail == "" {
				t.Error("Expected a detail message")
			}
		})
	}

	if cs.loads != 0 || cs.saves != 0 {
		t.Errorf("Invalid sort touched storage: %d loads, %d saves", cs.loads, cs.saves)
	}
}

func TestSortOrdering(t *testing.T) {
	coll := patient.Collection{
		"P001": {Name: "Alpha", City: "NY", Age: 30, Gender: "male", Height: 1.75, Weight: 70},
		"P002": {Name: "Beta", City: "LA", Age: 25, Gender: "female", Height: 1.60, Weight: 50},
	}
	router, _ := seedRouter(t, coll)

	tests := []struct {
		name     string
		path     string
		expected []string
	}{
		{"Weight ascending", "/sort?sort_by=weight&order=asc", []string{"Beta", "Alpha"}},
		{"Weight descending", "/sort?sort_by=weight&order=desc", []string{"Alpha", "Beta"}},
		{"Order defaults to ascending", "/sort?sort_by=height", []string{"Beta", "Alpha"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(router, "GET", tt.path, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
			}
			views := decodeBody[[]patient.View](t, rr)
			if len(views) != len(tt.expected) {
				t.Fatalf("Expected %d records, got %d", len(tt.expected), len(views))
			}
			for i, name := range tt.expected {
				if views[i].Name != name {
					t.Errorf("Position %d: expected %q, got %q", i, name, views[i].Name)
				}
				if views[i].ID != "" {
					t.Errorf("Sort output carries id %q", views[i].ID)
				}
			}
		})
	}
}

func TestStorageErrorSurfacesAsInternal(t *testing.T) {
	// A store pointing at a missing file is a fatal storage error
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	router := SetupRoutes(fs)

	rr := doRequest(router, "GET", "/view", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}
	body := decodeBody[ErrorResponse](t, rr)
	if body.Detail != "internal storage error" {
		t.Errorf("Expected generic storage detail, got %q", body.Detail)
	}
}
