//go:build integration_test

package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

type apiResponse struct {
	status int
	body   []byte
}

func (r apiResponse) decode(v any) error {
	return json.Unmarshal(r.body, v)
}

func (s *IntegrationTestSuite) call(ctx context.Context, method, path, token string, payload any) apiResponse {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		s.Require().NoError(err)
		body = bytes.NewReader(b)
	}
	return s.send(ctx, method, path, token, "application/json", body)
}

func (s *IntegrationTestSuite) send(ctx context.Context, method, path, token, contentType string, body io.Reader) apiResponse {
	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, body)
	s.Require().NoError(err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return apiResponse{status: resp.StatusCode, body: respBytes}
}
