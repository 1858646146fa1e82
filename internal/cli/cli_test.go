package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"digitronix/internal/config"
	"digitronix/internal/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockDatabase struct {
	db     *sql.DB
	closed bool
}

func (m *mockDatabase) DB() *sql.DB { return m.db }

func (m *mockDatabase) Health(ctx context.Context) map[string]string {
	return map[string]string{"status": "up"}
}

func (m *mockDatabase) Close() error {
	m.closed = true
	return nil
}

func newTestApp(t *testing.T) (*App, sqlmock.Sqlmock, *mockDatabase, *bytes.Buffer) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	out := &bytes.Buffer{}
	fake := &mockDatabase{db: db}
	app := &App{
		Config: &config.Config{
			JWT:     config.JWTConfig{Secret: "cli-secret", Expiry: time.Hour},
			Storage: config.StorageConfig{PublicBaseURL: "https://api.digitronix.example"},
		},
		Logger: zap.NewNop(),
		Connect: func(cfg config.DatabaseConfig) (database.Service, error) {
			return fake, nil
		},
		Out: out,
	}
	return app, mock, fake, out
}

func run(app *App, args ...string) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.Execute()
}

func TestCreateAdmin(t *testing.T) {
	app, mock, fake, out := newTestApp(t)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("boss@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			sqlmock.AnyArg(), "Boss", "boss@example.com", sqlmock.AnyArg(), "01000000000",
			"", "", "", "", true, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := run(app, "create-admin",
		"--name", "Boss",
		"--email", "Boss@Example.com",
		"--password", "correct-horse",
		"--phone", "01000000000",
	)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Created admin boss@example.com")
	assert.True(t, fake.closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdmin_RequiredFlags(t *testing.T) {
	app, _, _, _ := newTestApp(t)

	err := run(app, "create-admin", "--email", "boss@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestRewriteImageURLs(t *testing.T) {
	app, mock, _, out := newTestApp(t)

	mock.ExpectExec("UPDATE products").
		WithArgs("https://cdn.digitronix.example").
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, run(app, "rewrite-image-urls", "--base-url", "https://cdn.digitronix.example/"))
	assert.Equal(t, "Rewrote 4 product image URLs\n", out.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRewriteImageURLs_DefaultsToConfiguredBase(t *testing.T) {
	app, mock, _, _ := newTestApp(t)

	mock.ExpectExec("UPDATE products").
		WithArgs("https://api.digitronix.example").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, run(app, "rewrite-image-urls"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRewriteImageURLs_RejectsRelativeBase(t *testing.T) {
	app, _, _, _ := newTestApp(t)
	app.Connect = func(cfg config.DatabaseConfig) (database.Service, error) {
		t.Fatal("database must not be opened")
		return nil, nil
	}

	err := run(app, "rewrite-image-urls", "--base-url", "cdn.example")
	assert.Error(t, err)
}

func TestConnectFailure(t *testing.T) {
	app, _, _, _ := newTestApp(t)
	app.Connect = func(cfg config.DatabaseConfig) (database.Service, error) {
		return nil, errors.New("connection refused")
	}

	err := run(app, "migrate", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}
