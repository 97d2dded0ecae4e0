package database

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"arche/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestEmbeddedMigrations(t *testing.T) {
	require.NoError(t, loadErr)
	ms := GetMigrations()
	require.Len(t, ms, 2)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "init_schema", ms[0].Name)
	assert.Contains(t, ms[0].Up, "CREATE TABLE IF NOT EXISTS savoirs")
	assert.Contains(t, ms[1].Up, "get_user_total_votes")
	assert.Contains(t, ms[1].Down, "DROP FUNCTION")
	assert.Equal(t, "000002_profile_stat_functions", ms[1].String())
	assert.Len(t, ms[0].Checksum, 64)

	assert.NotNil(t, GetMigrationByVersion(2))
	assert.Nil(t, GetMigrationByVersion(99))
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_second.up.sql":   {Data: []byte("SELECT 2;")},
		"m/000002_second.down.sql": {Data: []byte("SELECT -2;")},
		"m/000001_first.up.sql":    {Data: []byte("SELECT 1;")},
		"m/000001_first.down.sql":  {Data: []byte("SELECT -1;")},
		"m/README.md":              {Data: []byte("ignored")},
	}
	ms, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "first", ms[0].Name)
	assert.Equal(t, "SELECT -2;", ms[1].Down)
	assert.Equal(t, checksum("SELECT 1;"), ms[0].Checksum)
	assert.NotEqual(t, ms[0].Checksum, ms[1].Checksum)
}

func TestLoadMigrations_Rejects(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want string
	}{
		{"missing down", fstest.MapFS{
			"m/000001_first.up.sql": {Data: []byte("SELECT 1;")},
		}, "no down script"},
		{"bad name", fstest.MapFS{
			"m/first.up.sql":   {Data: []byte("SELECT 1;")},
			"m/first.down.sql": {Data: []byte("SELECT 1;")},
		}, "expected NNNNNN_name"},
		{"bad version", fstest.MapFS{
			"m/abc_first.up.sql":   {Data: []byte("SELECT 1;")},
			"m/abc_first.down.sql": {Data: []byte("SELECT 1;")},
		}, "invalid version"},
		{"duplicate version", fstest.MapFS{
			"m/000001_a.up.sql":   {Data: []byte("SELECT 1;")},
			"m/000001_a.down.sql": {Data: []byte("SELECT 1;")},
			"m/1_b.up.sql":        {Data: []byte("SELECT 1;")},
			"m/1_b.down.sql":      {Data: []byte("SELECT 1;")},
		}, "used by both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMigrations(tt.fsys, "m")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVerifyLog(t *testing.T) {
	registered := []Migration{{Version: 1, Checksum: "aaa"}, {Version: 2, Checksum: "bbb"}}

	assert.NoError(t, verifyLog(nil, registered))
	assert.NoError(t, verifyLog([]MigrationLog{{Version: 1, Checksum: "aaa"}, {Version: 2}}, registered))

	err := verifyLog([]MigrationLog{{Version: 1}, {Version: 7}, {Version: 3}}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003, 000007")

	err = verifyLog([]MigrationLog{{Version: 1, Checksum: "zzz"}}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modified")
}

func TestPendingMigrations(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}
	pending := pendingMigrations([]int{1, 3}, registered)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		env     string
		want    SchemaPlan
		wantErr bool
	}{
		{"hybrid development", "hybrid", "development", SchemaPlan{Mode: "hybrid", RunSQL: true, RunAuto: true}, false},
		{"hybrid production", "hybrid", "production", SchemaPlan{Mode: "hybrid", RunSQL: true}, false},
		{"default mode is hybrid", "", "staging", SchemaPlan{Mode: "hybrid", RunSQL: true}, false},
		{"sql only", " SQL ", "development", SchemaPlan{Mode: "sql", RunSQL: true}, false},
		{"auto development", "auto", "development", SchemaPlan{Mode: "auto", RunAuto: true}, false},
		{"auto refused in production", "auto", "prod", SchemaPlan{}, true},
		{"unknown", "bogus", "development", SchemaPlan{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanSchema(&config.Config{DBSchemaMode: tt.mode, Env: tt.env})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan)
		})
	}
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func logRows() *sqlmock.Rows {
	ms := GetMigrations()
	rows := sqlmock.NewRows([]string{"version", "name", "checksum", "applied_at"})
	for _, m := range ms {
		rows.AddRow(m.Version, m.Name, m.Checksum, time.Now())
	}
	return rows
}

func TestGetSchemaStatus(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "migration_logs" ORDER BY version`).
		WillReturnRows(sqlmock.NewRows([]string{"version", "name", "checksum"}).
			AddRow(1, "init_schema", "stale-checksum"))

	status, err := GetSchemaStatus(context.Background(), db, &config.Config{DBSchemaMode: "sql", Env: "production"})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, status.AppliedVersions)
	require.Len(t, status.Pending, 1)
	assert.Equal(t, 2, status.Pending[0].Version)
	assert.Equal(t, []int{1}, status.Drifted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSchemaStatus_AutoSkipsLog(t *testing.T) {
	db, mock := newMockDB(t)

	status, err := GetSchemaStatus(context.Background(), db, &config.Config{DBSchemaMode: "auto", Env: "development"})
	require.NoError(t, err)
	assert.True(t, status.RunAuto)
	assert.Empty(t, status.AppliedVersions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_UpToDate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS migration_logs`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "migration_logs" ORDER BY version`).WillReturnRows(logRows())

	require.NoError(t, RunMigrations(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackMigration_OnlyLatest(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "migration_logs" ORDER BY version`).WillReturnRows(logRows())

	err := RollbackMigration(context.Background(), db, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latest: 000002")
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Error(t, RollbackMigration(context.Background(), db, 42))
}
