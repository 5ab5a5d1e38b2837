package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAccountNotFound = apierr.New(apierr.NotFound, "admin user not found")
	ErrLastSuperAdmin  = apierr.New(apierr.Conflict, "at least one active super_admin must remain")
)

const accountColumns = `id, username, email, password_hash, role, full_name, is_active, last_login_at, created_at`

type AccountsRepo struct {
	db *pgxpool.Pool
}

func NewAccountsRepo(db *pgxpool.Pool) *AccountsRepo {
	return &AccountsRepo{
		db: db,
	}
}

func (r *AccountsRepo) GetByUsername(ctx context.Context, username string) (*Account, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.get_by_username")
	defer span.End()

	return r.getOne(ctx, `SELECT `+accountColumns+` FROM admin_account WHERE username = $1;`, username)
}

func (r *AccountsRepo) GetByID(ctx context.Context, id int) (*Account, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.get_by_id")
	defer span.End()

	return r.getOne(ctx, `SELECT `+accountColumns+` FROM admin_account WHERE id = $1;`, id)
}

func (r *AccountsRepo) getOne(ctx context.Context, query string, arg any) (*Account, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrAccountNotFound
	}

	account, err := scanAccount(rows)
	if err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return account, nil
}

func (r *AccountsRepo) List(ctx context.Context) ([]Account, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.list")
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+accountColumns+` FROM admin_account ORDER BY created_at DESC, id DESC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *AccountsRepo) Create(ctx context.Context, account *Account) (*Account, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.create")
	defer span.End()

	if account.Username == "" || account.PasswordHash == "" {
		return nil, errors.New("account username or password hash empty")
	}

	err := r.db.QueryRow(
		ctx,
		`INSERT INTO admin_account (username, email, password_hash, role, full_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at;`,
		account.Username, account.Email, account.PasswordHash, string(account.Role), account.FullName, account.IsActive,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return nil, err
	}

	return account, nil
}

// Update overwrites the mutable profile fields. An empty PasswordHash keeps the stored one.
// Demoting or deactivating the last active super_admin fails with ErrLastSuperAdmin,
// checked under a lock on the super_admin rows.
func (r *AccountsRepo) Update(ctx context.Context, account *Account) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.update")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	stillSuperAdmin := account.Role == RoleSuperAdmin && account.IsActive
	if !stillSuperAdmin {
		if err = lockLastSuperAdmin(ctx, tx, account.ID); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(
		ctx,
		`UPDATE admin_account
		SET email = $1, full_name = $2, role = $3, is_active = $4,
			password_hash = COALESCE(NULLIF($5, ''), password_hash)
		WHERE id = $6;`,
		account.Email, account.FullName, string(account.Role), account.IsActive, account.PasswordHash, account.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrAccountNotFound
		return err
	}

	return tx.Commit(ctx)
}

// Delete removes the account, refusing to remove the last active super_admin.
func (r *AccountsRepo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.delete")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockLastSuperAdmin(ctx, tx, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM admin_account WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrAccountNotFound
		return err
	}
	return tx.Commit(ctx)
}

// lockLastSuperAdmin locks the active super_admin rows for the rest of the tx and
// fails when id is the only one left. Concurrent demotions queue on the lock and
// see the committed result of the previous one.
func lockLastSuperAdmin(ctx context.Context, tx pgx.Tx, id int) error {
	rows, err := tx.Query(
		ctx,
		`SELECT id FROM admin_account WHERE role = $1 AND is_active ORDER BY id FOR UPDATE;`,
		string(RoleSuperAdmin),
	)
	if err != nil {
		return fmt.Errorf("lock super admins: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return fmt.Errorf("lock super admins: %w", err)
	}
	if len(ids) == 1 && ids[0] == id {
		return ErrLastSuperAdmin
	}
	return nil
}

func (r *AccountsRepo) TouchLastLogin(ctx context.Context, id int, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE admin_account SET last_login_at = $1 WHERE id = $2;`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountsRepo) CountActiveSuperAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM admin_account WHERE role = $1 AND is_active;`,
		string(RoleSuperAdmin),
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanAccount(rows pgx.Rows) (*Account, error) {
	var (
		account     Account
		role        string
		lastLoginAt *time.Time
	)
	if err := rows.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&role,
		&account.FullName,
		&account.IsActive,
		&lastLoginAt,
		&account.CreatedAt,
	); err != nil {
		return nil, err
	}
	account.Role = Role(role)
	account.LastLoginAt = lastLoginAt
	return &account, nil
}
