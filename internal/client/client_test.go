package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"caredesk.io/patientms/internal/api"
	"caredesk.io/patientms/internal/patient"
	"caredesk.io/patientms/internal/store"
)

func newTestClient(t *testing.T, coll patient.Collection) *Client {
	t.Helper()

	fs := store.NewFileStore(filepath.Join(t.TempDir(), "patients.json"))
	if err := fs.Save(context.Background(), coll); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}

	srv := httptest.NewServer(api.SetupRoutes(fs))
	t.Cleanup(srv.Close)

	return New(srv.URL, 5*time.Second)
}

func TestClientHealthAndAbout(t *testing.T) {
	c := newTestClient(t, patient.Collection{})
	ctx := context.Background()

	msg, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if msg != api.HealthMessage {
		t.Errorf("Expected %q, got %q", api.HealthMessage, msg)
	}

	msg, err = c.About(ctx)
	if err != nil {
		t.Fatalf("About failed: %v", err)
	}
	if msg != api.AboutMessage {
		t.Errorf("Expected %q, got %q", api.AboutMessage, msg)
	}
}

func TestClientCRUDFlow(t *testing.T) {
	c := newTestClient(t, patient.Collection{})
	ctx := context.Background()

	created, err := c.Create(ctx, api.CreatePatientRequest{
		ID: "p001", Name: "John Doe", City: "NY",
		Age: 30, Gender: "male", Height: 1.75, Weight: 70,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != "P001" || created.BMI != 22.86 {
		t.Errorf("Unexpected created view: %+v", created)
	}

	got, err := c.Get(ctx, "p001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Verdict != patient.VerdictNormal {
		t.Errorf("Expected verdict %q, got %q", patient.VerdictNormal, got.Verdict)
	}

	age := 40
	updated, err := c.Update(ctx, "P001", patient.Update{Age: &age})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Age != 40 || updated.Name != "John Doe" {
		t.Errorf("Partial update wrong: %+v", updated)
	}

	views, err := c.View(ctx)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("Expected 1 patient, got %d", len(views))
	}

	msg, err := c.Delete(ctx, "P001")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if msg != "Patient deleted successfully" {
		t.Errorf("Unexpected delete message %q", msg)
	}

	if _, err := c.Get(ctx, "P001"); err == nil {
		t.Error("Expected an error fetching a deleted patient")
	}
}

func TestClientSurfacesDetail(t *testing.T) {
	c := newTestClient(t, patient.Collection{})
	ctx := context.Background()

	_, err := c.Get(ctx, "P404")
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
	if !strings.Contains(err.Error(), "Patient not found") {
		t.Errorf("Expected the server detail in the error, got %q", err.Error())
	}

	_, err = c.Sort(ctx, "name", "asc")
	if err == nil {
		t.Fatal("Expected an error for invalid sort field")
	}
	if !strings.Contains(err.Error(), "Invalid sort field") {
		t.Errorf("Expected the sort detail in the error, got %q", err.Error())
	}
}

func TestClientSort(t *testing.T) {
	coll := patient.Collection{
		"P001": {Name: "Alpha", City: "NY", Age: 30, Gender: "male", Height: 1.75, Weight: 70},
		"P002": {Name: "Beta", City: "LA", Age: 25, Gender: "female", Height: 1.60, Weight: 50},
	}
	c := newTestClient(t, coll)

	views, err := c.Sort(context.Background(), "weight", "desc")
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	if len(views) != 2 || views[0].Name != "Alpha" {
		t.Errorf("Unexpected sort result: %+v", views)
	}
}
