package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"caredesk.io/patientms/internal/api"
	"caredesk.io/patientms/internal/patient"
)

// Client is a typed HTTP client for the patient service. It is what the
// demo CLI drives; every method maps to exactly one endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client for the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// apiError carries the detail string of a non-2xx response.
type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

// do issues the request and decodes the response body into out. Non-2xx
// responses are turned into an error carrying the server's detail field.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil || errBody.Detail == "" {
			return &apiError{Status: resp.StatusCode, Detail: "unexpected response"}
		}
		return &apiError{Status: resp.StatusCode, Detail: errBody.Detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Health calls GET / and returns the service message.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodGet, "/", nil, &resp); err != nil {
		return "", err
	}
	return resp["message"], nil
}

// About calls GET /about and returns the service description.
func (c *Client) About(ctx context.Context) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodGet, "/about", nil, &resp); err != nil {
		return "", err
	}
	return resp["message"], nil
}

// View calls GET /view and returns the full collection keyed by id.
func (c *Client) View(ctx context.Context) (map[string]patient.View, error) {
	var resp map[string]patient.View
	if err := c.do(ctx, http.MethodGet, "/view", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Get calls GET /patient/{id}.
func (c *Client) Get(ctx context.Context, id string) (patient.View, error) {
	var resp patient.View
	err := c.do(ctx, http.MethodGet, "/patient/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Sort calls GET /sort with the given field and order.
func (c *Client) Sort(ctx context.Context, sortBy, order string) ([]patient.View, error) {
	q := url.Values{}
	q.Set("sort_by", sortBy)
	if order != "" {
		q.Set("order", order)
	}

	var resp []patient.View
	if err := c.do(ctx, http.MethodGet, "/sort?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Create calls POST /create with a full record payload.
func (c *Client) Create(ctx context.Context, req api.CreatePatientRequest) (patient.View, error) {
	var resp api.PatientResponse
	if err := c.do(ctx, http.MethodPost, "/create", req, &resp); err != nil {
		return patient.View{}, err
	}
	return resp.Patient, nil
}

// Update calls PUT /edit/{id} with a partial payload. Only the non-nil
// fields of upd are transmitted.
func (c *Client) Update(ctx context.Context, id string, upd patient.Update) (patient.View, error) {
	// Marshal through a map so absent fields stay absent on the wire.
	payload := map[string]any{}
	if upd.Name != nil {
		payload["name"] = *upd.Name
	}
	if upd.City != nil {
		payload["city"] = *upd.City
	}
	if upd.Age != nil {
		payload["age"] = *upd.Age
	}
	if upd.Gender != nil {
		payload["gender"] = *upd.Gender
	}
	if upd.Height != nil {
		payload["height"] = *upd.Height
	}
	if upd.Weight != nil {
		payload["weight"] = *upd.Weight
	}

	var resp api.PatientResponse
	if err := c.do(ctx, http.MethodPut, "/edit/"+url.PathEscape(id), payload, &resp); err != nil {
		return patient.View{}, err
	}
	return resp.Patient, nil
}

// Delete calls DELETE /delete/{id} and returns the confirmation message.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodDelete, "/delete/"+url.PathEscape(id), nil, &resp); err != nil {
		return "", err
	}
	return resp["message"], nil
}
