package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"caredesk.io/patientms/internal/metrics"
	"caredesk.io/patientms/internal/patient"
	"caredesk.io/patientms/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// writeError maps a handler error onto the taxonomy: validation failures
// carry their field list, storage failures surface as a generic 500.
func writeError(w http.ResponseWriter, operation string, err error) {
	var verr *patient.ValidationError
	switch {
	case errors.As(err, &verr):
		metrics.RecordPatientOp(operation, "validation_failed")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Detail: verr.Error(),
			Fields: verr.Fields,
		})
	case errors.Is(err, store.ErrStorage):
		metrics.RecordPatientOp(operation, "storage_error")
		writeDetail(w, http.StatusInternalServerError, "internal storage error")
	default:
		metrics.RecordPatientOp(operation, "error")
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

// HealthHandler returns the fixed health message
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	log.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote_addr", r.RemoteAddr).
		Msg("Health endpoint called")

	writeJSON(w, http.StatusOK, map[string]string{
		"message": HealthMessage,
	})
}

// AboutHandler returns the fixed service description
func AboutHandler(w http.ResponseWriter, r *http.Request) {
	log.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote_addr", r.RemoteAddr).
		Msg("About endpoint called")

	writeJSON(w, http.StatusOK, map[string]string{
		"message": AboutMessage,
	})
}

// ViewHandler handles GET /view, returning the full collection keyed by id
// with computed fields attached to every record.
func ViewHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var coll patient.Collection
		if err := st.Load(r.Context(), &coll); err != nil {
			log.Error().Err(err).Msg("Failed to load collection")
			writeError(w, "view", err)
			return
		}

		views := make(map[string]patient.View, len(coll))
		for id, rec := range coll {
			views[id] = rec.AsView(id)
		}

		log.Info().Int("count", len(views)).Msg("Collection viewed")
		metrics.RecordPatientOp("view", "success")
		writeJSON(w, http.StatusOK, views)
	}
}

// GetPatientHandler handles GET /patient/{id}
func GetPatientHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := patient.NormalizeID(mux.Vars(r)["id"])

		var coll patient.Collection
		if err := st.Load(r.Context(), &coll); err != nil {
			log.Error().Err(err).Str("id", id).Msg("Failed to load collection")
			writeError(w, "get", err)
			return
		}

		rec, ok := coll[id]
		if !ok {
			log.Warn().Str("id", id).Msg("Patient not found")
			metrics.RecordPatientOp("get", "not_found")
			writeDetail(w, http.StatusNotFound, "Patient not found")
			return
		}

		log.Info().Str("id", id).Msg("Patient retrieved")
		metrics.RecordPatientOp("get", "success")
		writeJSON(w, http.StatusOK, rec.AsView(id))
	}
}

// SortHandler handles GET /sort?sort_by=&order=. Parameters are checked
// before the collection is loaded, so invalid requests never touch storage.
func SortHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sortBy := r.URL.Query().Get("sort_by")
		order := r.URL.Query().Get("order")
		if order == "" {
			order = patient.OrderAsc
		}

		if !patient.ValidSortField(sortBy) {
			log.Warn().Str("sort_by", sortBy).Msg("Invalid sort field")
			metrics.RecordPatientOp("sort", "invalid_argument")
			writeDetail(w, http.StatusBadRequest, "Invalid sort field. Must be one of bmi, weight, height")
			return
		}
		if !patient.ValidSortOrder(order) {
			log.Warn().Str("order", order).Msg("Invalid sort order")
			metrics.RecordPatientOp("sort", "invalid_argument")
			writeDetail(w, http.StatusBadRequest, "Invalid order. Must be 'asc' or 'desc'")
			return
		}

		var coll patient.Collection
		if err := st.Load(r.Context(), &coll); err != nil {
			log.Error().Err(err).Msg("Failed to load collection")
			writeError(w, "sort", err)
			return
		}

		log.Info().
			Str("sort_by", sortBy).
			Str("order", order).
			Int("count", len(coll)).
			Msg("Collection sorted")
		metrics.RecordPatientOp("sort", "success")
		writeJSON(w, http.StatusOK, coll.Sort(sortBy, order))
	}
}

// CreatePatientHandler handles POST /create. The supplied id becomes the
// collection key; the stored value never carries the id itself.
func CreatePatientHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error().Err(err).Msg("Failed to decode create request")
			metrics.RecordPatientOp("create", "invalid_json")
			writeDetail(w, http.StatusBadRequest, "Invalid JSON format")
			return
		}

		id := patient.NormalizeID(req.ID)
		rec := req.Record()
		if err := patient.Validate(id, rec); err != nil {
			log.Warn().Err(err).Str("id", id).Msg("Create payload failed validation")
			writeError(w, "create", err)
			return
		}

		var coll patient.Collection
		if err := st.Load(r.Context(), &coll); err != nil {
			log.Error().Err(err).Str("id", id).Msg("Failed to load collection")
			writeError(w, "create", err)
			return
		}

		if _, exists := coll[id]; exists {
			log.Warn().Str("id", id).Msg("Patient ID already exists")
			metrics.RecordPatientOp("create", "conflict")
			writeDetail(w, http.StatusBadRequest, "Patient ID already exists")
			return
		}

		coll[id] = rec
		if err := st.Save(r.Context(), coll); err != nil {
			log.Error().Err(err).Str("id", id).Msg("Failed to save collection")
			writeError(w, "create", err)
			return
		}

		log.Info().Str("id", id).Msg("Patient created")
		metrics.RecordPatientOp("create", "success")
		writeJSON(w, http.StatusCreated, PatientResponse{
			Message: "Patient created successfully",
			Patient: rec.AsView(id),
		})
	}
}

// UpdatePatientHandler handles PUT /edit/{id}. Supplied fields merge over
// the stored record and the merged record is revalidated in full, so a
// partial update can still fail validation.
func UpdatePatientHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := patient.NormalizeID(mux.Vars(r)["id"])

		var upd patient.Update
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			log.Error().Err(err).Str("id", id).Msg("Failed to decode update request")
			metrics.RecordPatientOp("update", "invalid_json")
			writeDetail(w, http.StatusBadRequest, "Invalid JSON format")
			return
		}

		var coll patient.Collection
		if err := st.Load(r.Context(), &coll); err != nil {
			log.Error().Err(err).Str("id", id).Msg("Failed to load collection")
			writeError(w, "update", err)
			return
		}

		existing, ok := coll[id]
		if !ok {
			log.Warn().Str("id", id).Msg("Patient not found")
			metrics.RecordPatientOp("update", "not_found")
			writeDetail(w, http.StatusNotFound, "Patient not found")
			return
		}

		merged := upd.Apply(existing)
		if err := patient.Validate(id, merged); err != nil {
			log.Warn().Err(err).Str("id", id).Msg("Merged record failed validation")
			writeError(w, "update", err)
			return
		}

		coll[id] = merged
		if err := st.Save(r.Context(), coll); err != nil {
			log.Error().Err(err).Str("id", id).Msg("Failed to save collection")
			writeError(w, "update", err)
			return
		}

		log.Info().Str("id", id).Msg("Patient updated")
		metrics.RecordPatientOp("update", "success")
		writeJSON(w, http.StatusOK, PatientResponse{
			Message: "Patient updated successfully",
			Patient: merged.AsView(id),
		})
	}
}

// DeletePatientHandler handles DELETE /delete/{id}
func DeletePatientHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := patient.NormalizeID(mux.Vars(r)["id"])

		var coll patient.Collection
		if err := st.Load(r.Context(), &coll); err != nil {
			log.Error().Err(err).Str("id", id).Msg("Failed to load collection")
			writeError(w, "delete", err)
			return
		}

		if _, ok := coll[id]; !ok {
			log.Warn().Str("id", id).Msg("Patient not found")
			metrics.RecordPatientOp("delete", "not_found")
			writeDetail(w, http.StatusNotFound, "Patient not found")
			return
		}

		delete(coll, id)
		if err := st.Save(r.Context(), coll); err != nil {
			log.Error().Err(err).Str("id", id).Msg("Failed to save collection")
			writeError(w, "delete", err)
			return
		}

		log.Info().Str("id", id).Msg("Patient deleted")
		metrics.RecordPatientOp("delete", "success")
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Patient deleted successfully",
		})
	}
}
