package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the idempotent DDL of the service tables.
func Schema() string {
	return schemaSQL
}

// Migrate applies the schema. Every statement is idempotent, so it is safe to run on each deploy.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tag, err := pool.Exec(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	log.Debugf("schema applied: %s", tag.String())
	return nil
}
