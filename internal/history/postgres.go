package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // register pgx5 driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresLog mirrors records into the score_history table.
type PostgresLog struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresLog returns a log writing through pool.
func NewPostgresLog(pool *pgxpool.Pool) *PostgresLog {
	return &PostgresLog{pool: pool, now: time.Now}
}

// Append implements Log.
func (l *PostgresLog) Append(ctx context.Context, rec Record) error {
	at := rec.ScoredAt
	if at.IsZero() {
		at = l.now()
	}
	v := rec.Features
	_, err := l.pool.Exec(ctx, `
		INSERT INTO score_history (
			id, pregnancies, glucose, blood_pressure, skin_thickness,
			insulin, bmi, diabetes_pedigree_function, age,
			result, label, probability, scored_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.New(),
		v.Pregnancies,
		v.Glucose,
		v.BloodPressure,
		v.SkinThickness,
		v.Insulin,
		v.BMI,
		v.DiabetesPedigreeFunction,
		v.Age,
		rec.Result,
		rec.Label,
		rec.Probability,
		at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("history: insert score: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema migrations to the database at dsn.
// Already up-to-date databases are not an error.
func Migrate(dsn string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("history: open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrationURL(dsn))
	if err != nil {
		return fmt.Errorf("history: create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("history: run migrations up: %w", err)
	}
	return nil
}

// migrationURL rewrites a postgres DSN to the scheme the pgx5 driver expects.
func migrationURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme)
		}
	}
	return dsn
}
