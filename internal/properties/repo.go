package properties

import (
	"context"
	"errors"
	"fmt"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrBuildingNotFound = apierr.New(apierr.NotFound, "building not found")
	ErrBuildingExists   = apierr.New(apierr.Conflict, "building id or prefix already exists")
)

const buildingColumns = `id, name, prefix, address, description, image_path, created_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) ListBuildings(ctx context.Context) ([]Building, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.properties.list_buildings")
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT `+buildingColumns+` FROM building ORDER BY name, id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buildings := make([]Building, 0)
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		buildings = append(buildings, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return buildings, nil
}

func (r *Repo) GetBuilding(ctx context.Context, id string) (*Building, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.properties.get_building")
	defer span.End()

	b, err := scanBuilding(r.db.QueryRow(ctx, `SELECT `+buildingColumns+` FROM building WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBuildingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *Repo) AddBuilding(ctx context.Context, b *Building) (*Building, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.properties.add_building")
	defer span.End()

	err := r.db.QueryRow(
		ctx,
		`INSERT INTO building (id, name, prefix, address, description, image_path)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at;`,
		b.ID, b.Name, b.Prefix, b.Address, b.Description, b.ImagePath,
	).Scan(&b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Repo) UpdateBuilding(ctx context.Context, b *Building) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.properties.update_building")
	defer span.End()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE building SET name = $1, prefix = $2, address = $3, description = $4, image_path = $5
		WHERE id = $6;`,
		b.Name, b.Prefix, b.Address, b.Description, b.ImagePath, b.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBuildingNotFound
	}
	return nil
}

// DeleteBuilding removes the building and, by cascade, its units.
func (r *Repo) DeleteBuilding(ctx context.Context, id string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.properties.delete_building")
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM building WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBuildingNotFound
	}
	return nil
}

func (r *Repo) ListUnits(ctx context.Context, buildingID string) ([]Unit, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.properties.list_units")
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, building_id, title, floor, size, capacity, price, status, condition
		FROM unit WHERE building_id = $1 ORDER BY position, id;`,
		buildingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := make([]Unit, 0)
	for rows.Next() {
		var u Unit
		var status, condition string
		if err := rows.Scan(&u.ID, &u.BuildingID, &u.Title, &u.Floor, &u.Size, &u.Capacity, &u.Price, &status, &condition); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		u.Status = UnitStatus(status)
		u.Condition = Condition(condition)
		units = append(units, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return units, nil
}

// ReplaceUnits swaps the whole unit set of a building in one transaction.
// Concurrent savers are serialized on the building row, the last one wins.
func (r *Repo) ReplaceUnits(ctx context.Context, buildingID string, units []Unit) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.properties.replace_units")
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

	var lockedID string
	err = tx.QueryRow(ctx, `SELECT id FROM building WHERE id = $1 FOR UPDATE;`, buildingID).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBuildingNotFound
		}
		return fmt.Errorf("lock building: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM unit WHERE building_id = $1;`, buildingID); err != nil {
		return fmt.Errorf("delete units: %w", err)
	}

	rows := make([][]any, 0, len(units))
	for i, u := range units {
		rows = append(rows, []any{
			buildingID, u.ID, u.Title, u.Floor, u.Size, u.Capacity, u.Price, string(u.Status), string(u.Condition), i,
		})
	}
	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"unit"},
		[]string{"building_id", "id", "title", "floor", "size", "capacity", "price", "status", "condition", "position"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy units: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func scanBuilding(row pgx.Row) (*Building, error) {
	var b Building
	if err := row.Scan(&b.ID, &b.Name, &b.Prefix, &b.Address, &b.Description, &b.ImagePath, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
