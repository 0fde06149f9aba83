package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/akarpov/shortly/internal/config"
	"github.com/akarpov/shortly/internal/database"
	"github.com/akarpov/shortly/internal/database/postgres"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func setupPostgres(t testing.TB) config.Postgres {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Set TEST_INTEGRATION to run integration tests")
	}

	ctx := context.Background()

	pgUser := "test"
	pgPassword := "test"
	pgDB := "shortly"

	pgCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDB,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForExposedPort(),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgCont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate postgres container: %v", err)
		}
	})

	pgHost, err := pgCont.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	pgPort, err := pgCont.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return config.Postgres{
		User:     pgUser,
		Password: pgPassword,
		Host:     pgHost,
		Port:     pgPort.Int(),
		DB:       pgDB,
		SSLMode:  "disable",
	}
}

func runMigrations(t testing.TB, cfg config.Postgres) {
	t.Helper()

	m, err := migrate.New("file://../../migrations", cfg.DSN())
	if err != nil {
		t.Fatalf("Failed to initialize migrations: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
}

func setupURLRepository(t testing.TB) *postgres.URLRepository {
	t.Helper()

	cfg := setupPostgres(t)
	runMigrations(t, cfg)

	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	return postgres.NewURLRepository(db)
}

func TestURLRepository(t *testing.T) {
	repo := setupURLRepository(t)
	ctx := context.Background()

	t.Run("create and resolve", func(t *testing.T) {
		url, err := repo.Create(ctx, "code1", "https://example.com")
		require.NoError(t, err)
		require.NotNil(t, url)
		assert.NotZero(t, url.ID)
		assert.Equal(t, "code1", url.ShortCode)
		assert.Equal(t, "https://example.com", url.OriginalURL)
		assert.WithinDuration(t, time.Now(), url.CreatedAt, time.Minute)

		got, err := repo.GetByShortCode(ctx, "code1")
		require.NoError(t, err)
		assert.Equal(t, url.ID, got.ID)
	})

	t.Run("duplicate short code", func(t *testing.T) {
		_, err := repo.Create(ctx, "code1", "https://other.example.com")

		assert.ErrorIs(t, err, database.ErrShortCodeExists)
	})

	t.Run("short code existence", func(t *testing.T) {
		exists, err := repo.ShortCodeExists(ctx, "code1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ShortCodeExists(ctx, "nothere")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("unknown short code", func(t *testing.T) {
		url, err := repo.GetByShortCode(ctx, "nothere")

		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
	})

	t.Run("clicks", func(t *testing.T) {
		url, err := repo.Create(ctx, "code2", "https://example.com/page")
		require.NoError(t, err)

		for i := 0; i < 7; i++ {
			require.NoError(t, repo.RecordClick(ctx, url.ID))
		}

		count, err := repo.CountClicks(ctx, url.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), count)

		recent, err := repo.RecentClicks(ctx, url.ID, 5)
		require.NoError(t, err)
		require.Len(t, recent, 5)
		for i := 1; i < len(recent); i++ {
			assert.False(t, recent[i].After(recent[i-1]), "recent clicks should be ordered newest first")
		}
	})
}
