//go:build integration_test

package integration_testing

import (
	"context"
	"sync"

	"github.com/crestline/estatesite/internal/auth"
	"github.com/crestline/estatesite/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
)

func (s *IntegrationTestSuite) TestConcurrentRemovalKeepsOneSuperAdmin() {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, s.dsn)
	s.Require().NoError(err)
	defer pool.Close()
	repo := auth.NewAccountsRepo(pool)

	hash, err := pkg.HashPasswordWithCost("backup-password", 4)
	s.Require().NoError(err)
	backup, err := repo.Create(ctx, &auth.Account{
		Username:     "backup",
		Email:        "backup@crestline.test",
		PasswordHash: hash,
		Role:         auth.RoleSuperAdmin,
		IsActive:     true,
	})
	s.Require().NoError(err)

	root, err := repo.GetByUsername(ctx, superAdminUsername)
	s.Require().NoError(err)
	demoted := *root
	demoted.Role = auth.RoleAdmin
	demoted.PasswordHash = ""

	defer func() {
		_, _ = s.DB.Exec(`UPDATE admin_account SET role = 'super_admin', is_active = TRUE WHERE username = $1`, superAdminUsername)
		_, _ = s.DB.Exec(`DELETE FROM admin_account WHERE username = 'backup'`)
	}()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = repo.Delete(ctx, backup.ID)
	}()
	go func() {
		defer wg.Done()
		errs[1] = repo.Update(ctx, &demoted)
	}()
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			s.ErrorIs(err, auth.ErrLastSuperAdmin)
			failed++
		}
	}
	s.Equal(1, failed)

	count, err := repo.CountActiveSuperAdmins(ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}
