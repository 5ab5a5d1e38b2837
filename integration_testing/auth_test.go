//go:build integration_test

package integration_testing

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/auth"
)

func (s *IntegrationTestSuite) TestLoginVerifyLogout() {
	ctx := context.Background()

	client := s.newClient(ctx, adminUsername, adminPassword)
	user, err := client.Verify(ctx)
	s.Require().NoError(err)
	s.Equal(adminUsername, user.Username)
	s.Equal(auth.RoleAdmin, user.Role)

	var lastLogin sql.NullTime
	s.Require().NoError(s.DB.QueryRow(`SELECT last_login_at FROM admin_account WHERE username = $1`, adminUsername).Scan(&lastLogin))
	s.True(lastLogin.Valid)

	s.Require().NoError(client.Logout(ctx))

	_, err = client.Login(ctx, adminUsername, "wrong-password")
	s.Require().Error(err)
	s.Equal(apierr.Unauthenticated, apierr.KindOf(err))

	resp := s.call(ctx, http.MethodGet, "/api/admin/verify", "not-a-token", nil)
	s.Equal(http.StatusUnauthorized, resp.status)
}

func (s *IntegrationTestSuite) TestAdminUserManagementIsSuperAdminOnly() {
	ctx := context.Background()
	clerk := s.newClient(ctx, adminUsername, adminPassword)
	root := s.newClient(ctx, superAdminUsername, superAdminPassword)

	newUser := map[string]string{
		"username": "intern",
		"email":    "intern@crestline.test",
		"password": "intern-password",
		"fullName": "Summer Intern",
	}

	resp := s.call(ctx, http.MethodPost, "/api/admin/users", clerk.Token(), newUser)
	s.Equal(http.StatusForbidden, resp.status)

	users, err := clerk.AdminUsers(ctx)
	s.Require().NoError(err)
	s.Len(users, 2)

	resp = s.call(ctx, http.MethodPost, "/api/admin/users", root.Token(), newUser)
	s.Require().Equal(http.StatusCreated, resp.status, string(resp.body))
	var created struct {
		User auth.Account `json:"user"`
	}
	s.Require().NoError(resp.decode(&created))
	s.Equal(auth.RoleAdmin, created.User.Role)

	resp = s.call(ctx, http.MethodPost, "/api/admin/users", root.Token(), newUser)
	s.Equal(http.StatusConflict, resp.status)

	resp = s.call(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", created.User.ID), clerk.Token(), nil)
	s.Equal(http.StatusForbidden, resp.status)
	resp = s.call(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", created.User.ID), root.Token(), nil)
	s.Equal(http.StatusOK, resp.status)
	resp = s.call(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", created.User.ID), root.Token(), nil)
	s.Equal(http.StatusNotFound, resp.status)
}
