package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAppointmentNotFound = apierr.New(apierr.NotFound, "appointment not found")

const appointmentColumns = `id, company_name, phone_number, email, preferred_date, preferred_time,
	property, floor, additional_notes, status, created_at, updated_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, a *Appointment) (*Appointment, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.appointments.add")
	defer span.End()

	if a.Status == "" {
		a.Status = StatusPending
	}

	err := r.db.QueryRow(
		ctx,
		`INSERT INTO appointment (company_name, phone_number, email, preferred_date, preferred_time,
			property, floor, additional_notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at;`,
		a.CompanyName, a.PhoneNumber, a.Email, a.PreferredDate, a.PreferredTime,
		a.Property, a.Floor, a.AdditionalNotes, string(a.Status),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	return a, nil
}

func (r *Repo) Get(ctx context.Context, id int) (*Appointment, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.appointments.get")
	defer span.End()

	row := r.db.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointment WHERE id = $1;`, id)
	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return a, nil
}

// List returns appointments newest first, optionally only those with the given status.
func (r *Repo) List(ctx context.Context, status Status) ([]Appointment, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.appointments.list")
	defer span.End()

	query := `SELECT ` + appointmentColumns + ` FROM appointment`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC;`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		appointments = append(appointments, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id int, status Status) (*Appointment, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.appointments.update_status")
	defer span.End()

	row := r.db.QueryRow(
		ctx,
		`UPDATE appointment SET status = $1, updated_at = now() WHERE id = $2
		RETURNING `+appointmentColumns+`;`,
		string(status), id,
	)
	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *Repo) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.appointments.delete")
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM appointment WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *Repo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.appointments.count_by_status")
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM appointment GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		counts[Status(status)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	if err := row.Scan(
		&a.ID,
		&a.CompanyName,
		&a.PhoneNumber,
		&a.Email,
		&a.PreferredDate,
		&a.PreferredTime,
		&a.Property,
		&a.Floor,
		&a.AdditionalNotes,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}
