package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caredesk.io/patientms/internal/metrics"
	"caredesk.io/patientms/internal/store"
)

// SetupRoutes configures and returns the HTTP router
func SetupRoutes(st store.Store) *mux.Router {
	r := mux.NewRouter()

	// Add middleware to all routes
	r.Use(metrics.MetricsMiddleware)

	// Routes
	r.HandleFunc("/", HealthHandler).Methods("GET")
	r.HandleFunc("/about", AboutHandler).Methods("GET")

	// Patient endpoints
	r.HandleFunc("/view", ViewHandler(st)).Methods("GET")
	r.HandleFunc("/patient/{id}", GetPatientHandler(st)).Methods("GET")
	r.HandleFunc("/sort", SortHandler(st)).Methods("GET")
	r.HandleFunc("/create", CreatePatientHandler(st)).Methods("POST")
	r.HandleFunc("/edit/{id}", UpdatePatientHandler(st)).Methods("PUT")
	r.HandleFunc("/delete/{id}", DeletePatientHandler(st)).Methods("DELETE")

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}
