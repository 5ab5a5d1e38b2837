//go:build integration_test

package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

func jpegOf(size int) []byte {
	img := make([]byte, size)
	copy(img, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	return img
}

func (s *IntegrationTestSuite) uploadForm(kind string, content []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	s.Require().NoError(mw.WriteField("type", kind))

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="image"; filename="lobby.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())
	return body, mw.FormDataContentType()
}

func (s *IntegrationTestSuite) TestUploadSizeLimit() {
	ctx := context.Background()
	clerk := s.newClient(ctx, adminUsername, adminPassword)

	body, ct := s.uploadForm("buildings", jpegOf(6<<20))
	resp := s.send(ctx, http.MethodPost, "/api/uploads/single", clerk.Token(), ct, body)
	s.Equal(http.StatusBadRequest, resp.status)
	s.Contains(string(resp.body), "file too large")

	body, ct = s.uploadForm("buildings", jpegOf(1<<20))
	resp = s.send(ctx, http.MethodPost, "/api/uploads/single", "", ct, body)
	s.Equal(http.StatusUnauthorized, resp.status)

	body, ct = s.uploadForm("buildings", jpegOf(1<<20))
	resp = s.send(ctx, http.MethodPost, "/api/uploads/single", clerk.Token(), ct, body)
	s.Require().Equal(http.StatusOK, resp.status, string(resp.body))

	var uploaded struct {
		File struct {
			Path string `json:"path"`
			URL  string `json:"url"`
		} `json:"file"`
	}
	s.Require().NoError(resp.decode(&uploaded))
	s.True(strings.HasPrefix(uploaded.File.Path, "buildings/"), uploaded.File.Path)

	served := s.send(ctx, http.MethodGet, uploaded.File.URL, "", "", nil)
	s.Equal(http.StatusOK, served.status)
	s.Len(served.body, 1<<20)

	payload, err := json.Marshal(map[string]string{"path": uploaded.File.Path})
	s.Require().NoError(err)
	resp = s.send(ctx, http.MethodDelete, "/api/uploads", clerk.Token(), "application/json", bytes.NewReader(payload))
	s.Equal(http.StatusOK, resp.status)
	resp = s.send(ctx, http.MethodDelete, "/api/uploads", clerk.Token(), "application/json", bytes.NewReader(payload))
	s.Equal(http.StatusNotFound, resp.status)
}
