package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/appointments"
	"github.com/crestline/estatesite/internal/auth"
	"github.com/crestline/estatesite/internal/properties"
	"github.com/crestline/estatesite/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 15 * time.Second

// Client talks to the back-office REST API with the current bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Login(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	var resp auth.LoginResult
	err := c.do(ctx, http.MethodPost, "/api/admin/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/admin/logout", nil, nil)
}

func (c *Client) Verify(ctx context.Context) (*auth.Account, error) {
	var resp struct {
		Valid bool          `json:"valid"`
		User  *auth.Account `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/verify", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid || resp.User == nil {
		return nil, auth.ErrInvalidToken
	}
	return resp.User, nil
}

func (c *Client) Buildings(ctx context.Context) ([]properties.Building, error) {
	var resp struct {
		Buildings []properties.Building `json:"buildings"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/buildings", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Buildings, nil
}

// EditorUnits loads the units of a building bypassing the public listing cache.
func (c *Client) EditorUnits(ctx context.Context, buildingID string) ([]properties.Unit, error) {
	var resp struct {
		Units []properties.Unit `json:"units"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/buildings/"+url.PathEscape(buildingID)+"/units", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Units, nil
}

// SaveUnits replaces the unit list of a building.
func (c *Client) SaveUnits(ctx context.Context, buildingID string, units []properties.Unit) ([]properties.Unit, error) {
	var resp struct {
		Units []properties.Unit `json:"units"`
	}
	path := "/api/admin/buildings/" + url.PathEscape(buildingID) + "/units"
	if err := c.do(ctx, http.MethodPut, path, properties.UnitsPayload{Units: units}, &resp); err != nil {
		return nil, err
	}
	return resp.Units, nil
}

func (c *Client) Appointments(ctx context.Context, status appointments.Status) ([]appointments.Appointment, error) {
	path := "/api/admin/appointments"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}

	var resp struct {
		Appointments []appointments.Appointment `json:"appointments"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Appointments, nil
}

func (c *Client) UpdateAppointmentStatus(ctx context.Context, id int, status appointments.Status) (*appointments.Appointment, error) {
	var resp struct {
		Appointment *appointments.Appointment `json:"appointment"`
	}
	body := map[string]appointments.Status{"status": status}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/appointments/%d/status", id), body, &resp); err != nil {
		return nil, err
	}
	return resp.Appointment, nil
}

func (c *Client) AdminUsers(ctx context.Context) ([]auth.Account, error) {
	var resp struct {
		Users []auth.Account `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// do sends body as JSON and decodes the response into out. Non-2xx responses
// come back as apierr errors of the kind matching the status code.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "adminclient."+strings.ToLower(method))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp.StatusCode, respBytes)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("unmarshal %s %s response: %w", method, path, err)
	}
	return nil
}

func responseError(status int, body []byte) error {
	var errResp apierr.Response
	message := http.StatusText(status)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		message = errResp.Message
	} else if err != nil {
		log.Tracef("error response is not json: %s", err)
	}

	switch status {
	case http.StatusUnauthorized:
		return apierr.New(apierr.Unauthenticated, message)
	case http.StatusForbidden:
		return apierr.New(apierr.Forbidden, message)
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return apierr.New(apierr.Validation, message)
	case http.StatusNotFound:
		return apierr.New(apierr.NotFound, message)
	case http.StatusConflict:
		return apierr.New(apierr.Conflict, message)
	}
	return apierr.Newf(apierr.Dependency, "server returned %d: %s", status, message)
}
