package goose

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericComponent(t *testing.T) {
	for _, tt := range []struct {
		name    string
		version int64
		wantErr bool
	}{
		{"20260811111500_AddAllocatedAmountToBudgetState.go", 20260811111500, false},
		{"/some/dir/20240112103000_CreateTableUsers.go", 20240112103000, false},
		{"20240112103000_CreateTableUsers.sql", 20240112103000, false},
		{"20240112103000_CreateTableUsers.txt", 0, true},
		{"NoSeparator.go", 0, true},
		{"0_ZeroVersion.go", 0, true},
		{"-5_NegativeVersion.go", 0, true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NumericComponent(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.version, v)
		})
	}
}

func TestParseNameAndDate(t *testing.T) {
	for _, tt := range []struct {
		source   string
		wantName string
		wantDate string
	}{
		{"20260811111500_AddAllocatedAmountToBudgetState.go", "Add Allocated Amount To Budget State", "2026-08-11"},
		{"20240112103000_CreateTableUsers.go", "Create Table Users", "2024-01-12"},
		// Invalid seconds component, only the date portion is parsed.
		{"20240112103080_CreateTableUsers.go", "Create Table Users", "2024-01-12"},
	} {
		name, date := parseNameAndDate(tt.source)
		assert.Equal(t, tt.wantName, name)
		assert.Equal(t, tt.wantDate, date)
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)

	paths, err := CreateMigration("AddWidgetsToGadgets", "go", dir, ts)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "20260820103000_AddWidgetsToGadgets.go"),
		filepath.Join(dir, "20260820103000_AddWidgetsToGadgets_test.go"),
	}, paths)

	migration, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(migration), "MigrationClient.AddMigration(Up_20260820103000, Down_20260820103000)")
	assert.Contains(t, string(migration), "func Up_20260820103000(tx *sql.Tx) error {")
	assert.Contains(t, string(migration), "func Down_20260820103000(tx *sql.Tx) error {")

	test, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(test), "func TestUp_20260820103000(t *testing.T) {")
	assert.Contains(t, string(test), "applyUpToPrev(t)")

	// Only Go migrations are supported.
	_, err = CreateMigration("AddWidgetsToGadgets", "sql", dir, ts)
	require.Error(t, err)
}

func TestMigrationsNextAndCurrent(t *testing.T) {
	ms := Migrations{
		{Version: 3, Source: "3_c.go"},
		{Version: 1, Source: "1_a.go"},
		{Version: 2, Source: "2_b.go"},
	}

	next, err := ms.Next(0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, next.Version)

	next, err = ms.Next(1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, next.Version)

	_, err = ms.Next(3)
	assert.Equal(t, ErrNoNextVersion, err)

	current, err := ms.Current(2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, current.Version)

	_, err = ms.Current(42)
	assert.Equal(t, ErrNoCurrentVersion, err)
}
