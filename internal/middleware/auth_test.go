package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crestline/estatesite/internal/auth"
	"github.com/crestline/estatesite/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	testCases := []struct {
		name               string
		path               string
		method             string
		authHeader         string
		expectedStatusCode int
		expectAuthenticate bool
		mockIdentity       auth.Identity
		mockErr            error
	}{
		{
			name:               "PublicPathWithoutToken",
			path:               "/api/buildings",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "LoginIsPublic",
			path:               "/api/admin/login",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "PublicBooking",
			path:               "/api/appointments/send-appointment",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "AdminPathWithoutToken",
			path:               "/api/admin/appointments",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "UploadsWithoutToken",
			path:               "/api/uploads/single",
			method:             "POST",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "WrongScheme",
			path:               "/api/admin/appointments",
			method:             "GET",
			authHeader:         "Basic dXNlcjpwYXNz",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "EmptyBearer",
			path:               "/api/admin/appointments",
			method:             "GET",
			authHeader:         "Bearer   ",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidToken",
			path:               "/api/admin/appointments",
			method:             "GET",
			authHeader:         "Bearer valid-token",
			expectedStatusCode: http.StatusOK,
			expectAuthenticate: true,
			mockIdentity:       auth.Identity{AccountID: 3, Role: auth.RoleAdmin},
		},
		{
			name:               "LowercaseScheme",
			path:               "/api/admin/verify",
			method:             "GET",
			authHeader:         "bearer valid-token",
			expectedStatusCode: http.StatusOK,
			expectAuthenticate: true,
			mockIdentity:       auth.Identity{AccountID: 3, Role: auth.RoleAdmin},
		},
		{
			name:               "InvalidToken",
			path:               "/api/admin/appointments",
			method:             "GET",
			authHeader:         "Bearer valid-token",
			expectedStatusCode: http.StatusUnauthorized,
			expectAuthenticate: true,
			mockErr:            auth.ErrInvalidToken,
		},
		{
			name:               "UnclassifiedErrorStillUnauthorized",
			path:               "/api/admin/appointments",
			method:             "GET",
			authHeader:         "Bearer valid-token",
			expectedStatusCode: http.StatusUnauthorized,
			expectAuthenticate: true,
			mockErr:            errors.New("boom"),
		},
		{
			name:               "OptionsPassThrough",
			path:               "/api/admin/appointments",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			authenticator := NewMocktokenAuthenticator(ctrl)
			if tc.expectAuthenticate {
				authenticator.EXPECT().
					Authenticate(gomock.Any(), "valid-token").
					Return(tc.mockIdentity, tc.mockErr)
			}

			var gotIdentity auth.Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotIdentity, _ = auth.IdentityFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := middleware.NewAuthMiddlewareHandler(authenticator).AuthCheck()(next)
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			if tc.expectedStatusCode == http.StatusOK && tc.expectAuthenticate {
				assert.Equal(t, tc.mockIdentity, gotIdentity)
			}
			if rr.Code == http.StatusUnauthorized {
				assert.Contains(t, rr.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})
	handler := middleware.RequireRole(auth.RoleSuperAdmin)(next)

	for _, tc := range []struct {
		name       string
		identity   *auth.Identity
		wantStatus int
		wantCalled bool
	}{
		{name: "no identity", wantStatus: http.StatusUnauthorized},
		{name: "admin", identity: &auth.Identity{AccountID: 2, Role: auth.RoleAdmin}, wantStatus: http.StatusForbidden},
		{name: "super admin", identity: &auth.Identity{AccountID: 1, Role: auth.RoleSuperAdmin}, wantStatus: http.StatusNoContent, wantCalled: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(http.MethodPost, "/api/admin/users", nil)
			if tc.identity != nil {
				req = req.WithContext(auth.WithIdentity(req.Context(), *tc.identity))
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCalled, called)
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := middleware.BearerToken(req)
	assert.False(t, ok)

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	token, ok := middleware.BearerToken(req)
	require.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)
}
