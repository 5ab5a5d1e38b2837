package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/crestline/estatesite/internal/admins"
	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/auth"
	"github.com/crestline/estatesite/internal/config"
	"github.com/crestline/estatesite/internal/db"
	"github.com/crestline/estatesite/internal/logging"

	log "github.com/sirupsen/logrus"
)

// setup_admin applies the schema and creates the first super_admin account.
// The password is read from ESTATE_ADMIN_PASSWORD so it never shows up in shell history.
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	username := flag.String("username", "admin", "super admin username")
	email := flag.String("email", "", "super admin email")
	fullName := flag.String("fullname", "Administrator", "super admin full name")
	migrateOnly := flag.Bool("migrate-only", false, "only apply the schema")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: os.Getenv("ESTATE_POSTGRES_PASSWORD"),
		MaxConns:   2,
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %s", err)
	}
	log.Infoln("schema applied")

	if *migrateOnly {
		return
	}

	password := os.Getenv("ESTATE_ADMIN_PASSWORD")
	if password == "" {
		log.Fatalln("admin password not set. use ESTATE_ADMIN_PASSWORD")
	}

	service := admins.NewService(auth.NewAccountsRepo(pool), cfg.PasswordCost)
	account, err := service.Create(ctx, admins.CreateAccountRequest{
		Username: *username,
		Email:    *email,
		Password: password,
		Role:     auth.RoleSuperAdmin,
		FullName: *fullName,
	})
	if err != nil {
		if apierr.KindOf(err) == apierr.Conflict {
			log.Warnf("super admin not created: %s", err)
			return
		}
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) {
			log.Fatalf("invalid admin: %s", apiErr.Message)
		}
		log.Fatalf("create super admin: %s", err)
	}

	log.Infof("super admin [%s] created with id %d", account.Username, account.ID)
}
