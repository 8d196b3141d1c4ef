package database

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wanderplan/config"
	"wanderplan/planner"
)

func newMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db, nil), mock
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@h:5432/db", BuildDSN(config.DatabaseConfig{URL: "postgres://u:p@h:5432/db"}))

	cfg := config.DatabaseConfig{
		Host: "localhost", Port: "5432", User: "postgres", Password: "postgres",
		Name: "wanderplan", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=postgres dbname=wanderplan sslmode=disable",
		BuildDSN(cfg))
}

func TestLookupDestinations(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM destinations WHERE lower(name) = ANY($1)")).
		WithArgs(pq.Array([]string{"dubai", "london"})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "nightly_base_price", "highlights"}).
			AddRow("d1", "Dubai", 300.0, "{\"Burj Khalifa\",\"Desert safari\"}").
			AddRow("d2", "London", nil, "{}"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM packages WHERE destination_id = $1")).
		WithArgs("d1", PackagesPerDestination).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "duration_days", "total_price", "activities"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM packages WHERE destination_id = $1")).
		WithArgs("d2", PackagesPerDestination).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "duration_days", "total_price", "activities"}).
			AddRow("p1", "London Explorer", int64(5), 1000.0, "{\"Tower Bridge\",Camden}"))

	entries, err := p.LookupDestinations(context.Background(), []string{"Dubai", " London "})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NotNil(t, entries[0].NightlyBasePrice)
	assert.Equal(t, 300.0, *entries[0].NightlyBasePrice)
	assert.Equal(t, []string{"Burj Khalifa", "Desert safari"}, entries[0].Highlights)
	assert.Empty(t, entries[0].RelatedPackages)

	assert.Nil(t, entries[1].NightlyBasePrice)
	assert.Equal(t, []planner.CatalogPackage{{
		ID: "p1", Name: "London Explorer", DurationDays: 5, TotalPrice: 1000,
		Activities: []string{"Tower Bridge", "Camden"},
	}}, entries[1].RelatedPackages)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupDestinationsError(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery("FROM destinations").WillReturnError(sql.ErrConnDone)

	_, err := p.LookupDestinations(context.Background(), []string{"Dubai"})
	assert.ErrorIs(t, err, sql.ErrConnDone)

	entries, err := p.LookupDestinations(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, entries)
}

func TestSavePlan(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO plans")).
		WithArgs(sqlmock.AnyArg(), "user-1", "Dubai trip", []byte(`{"title":"Dubai trip"}`), 2400.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := p.SavePlan(context.Background(), "user-1", "Dubai trip", map[string]string{"title": "Dubai trip"}, 2400)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPlan(t *testing.T) {
	p, mock := newMock(t)
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM plans WHERE id = $1")).
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "document", "total_price", "created_at"}).
			AddRow("plan-1", "user-1", "Dubai trip", []byte(`{"a":1}`), 2400.0, created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM plans WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	sp, err := p.GetPlan(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "Dubai trip", sp.Title)
	assert.JSONEq(t, `{"a":1}`, string(sp.Document))
	assert.Equal(t, created, sp.CreatedAt)

	_, err = p.GetPlan(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMigrate(t *testing.T) {
	p, mock := newMock(t)
	for range migrations {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, p.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
