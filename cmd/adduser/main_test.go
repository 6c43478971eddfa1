package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/finance-tracker/internal/database"
	"github.com/iliyamo/finance-tracker/internal/repository"
)

func runCmd(t *testing.T, stdin *bytes.Buffer, args ...string) (string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	if stdin == nil {
		stdin = new(bytes.Buffer)
	}
	err := run(append([]string{"-cost", "4"}, args...), stdin, stdout, stderr)
	return stdout.String(), err
}

func TestRun_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "success.db")

	out, err := runCmd(t, nil, "-user", "root", "-password", "Secret123", "-db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "User root created successfully")
	assert.Contains(t, out, "role admin")
}

func TestRun_DefaultEmail(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "email.db")

	_, err := runCmd(t, nil, "-user", "root", "-password", "Secret123", "-db", dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	db, err := database.Connect(ctx, database.DriverSQLite, "", "", "", "", "", dbPath)
	require.NoError(t, err)
	defer db.Close()

	u, err := repository.NewUserRepo(db).GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "root@localhost.localdomain", u.Email)
}

func TestRun_RegularUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "regular.db")

	out, err := runCmd(t, nil, "-user", "alice", "-email", "alice@example.com", "-password", "Secret123", "-role", "user", "-db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "role user")
}

func TestRun_DuplicateUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "duplicate.db")
	args := []string{"-user", "root", "-password", "Secret123", "-db", dbPath}

	_, err := runCmd(t, nil, args...)
	require.NoError(t, err, "first run should succeed")

	_, err = runCmd(t, nil, args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_RespectsUserCap(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cap.db")

	_, err := runCmd(t, nil, "-user", "root", "-password", "Secret123", "-db", dbPath, "-max-users", "1")
	require.NoError(t, err)

	_, err = runCmd(t, nil, "-user", "alice", "-password", "Secret123", "-db", dbPath, "-max-users", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Maximum user limit reached")
}

func TestRun_WeakPassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "weak.db")

	_, err := runCmd(t, nil, "-user", "root", "-password", "secret", "-db", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")
}

func TestRun_InvalidRole(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "role.db")

	_, err := runCmd(t, nil, "-user", "root", "-password", "Secret123", "-role", "owner", "-db", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid role")
}

func TestRun_MissingUserFlag(t *testing.T) {
	out, err := runCmd(t, nil, "-password", "Secret123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags: user")
	assert.Contains(t, out, "Usage:")
}

func TestRun_InteractivePassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "interactive.db")

	out, err := runCmd(t, bytes.NewBufferString("Interactive1\n"), "-user", "prompted", "-db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "User prompted created successfully")
}

func TestRun_InteractivePassword_Empty(t *testing.T) {
	_, err := runCmd(t, bytes.NewBufferString("\n"), "-user", "nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")
}

func TestRun_EnvVarOverride(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("DB_PATH", dbPath)

	_, err := runCmd(t, nil, "-user", "envuser", "-password", "Secret123")
	require.NoError(t, err)
	assert.FileExists(t, dbPath)
}

func TestRun_InvalidDBPath(t *testing.T) {
	_, err := runCmd(t, nil, "-user", "failuser", "-password", "Secret123", "-db", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRun_UnknownDriver(t *testing.T) {
	_, err := runCmd(t, nil, "-user", "root", "-password", "Secret123", "-driver", "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRun_InvalidFlag(t *testing.T) {
	_, err := runCmd(t, nil, "-invalid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag provided but not defined")
}
