package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	yaml := fmt.Sprintf(`server:
  port: 8080
storage:
  driver: bolt
  bolt_path: %s
jwt:
  secret: %s
log:
  level: error
`, filepath.Join(dir, "cli.db"), "0123456789abcdef0123456789abcdef")
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := RootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSequenceShow(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, "--config", cfg, "sequence", "show", "invoice")
	require.NoError(t, err)
	assert.Contains(t, out, "INV-000001")
}

func TestSequenceReset_RequiresActor(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, "--config", cfg, "sequence", "reset", "invoice", "10", "--reason", "migration")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--actor")

	_, err = run(t, "--config", cfg, "--actor", "ops", "sequence", "reset", "invoice", "ten", "--reason", "migration")
	assert.Error(t, err)
}

func TestFee(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "fee", "show")
	require.NoError(t, err)
	assert.Equal(t, "5%\n", out)

	_, err = run(t, "--config", cfg, "--actor", "ops", "fee", "set", "7.5")
	require.NoError(t, err)

	out, err = run(t, "--config", cfg, "fee", "show")
	require.NoError(t, err)
	assert.Equal(t, "7.5%\n", out)

	t.Run("Out of range", func(t *testing.T) {
		_, err := run(t, "--config", cfg, "--actor", "ops", "fee", "set", "140")
		assert.Error(t, err)
	})
}

func TestOutbox(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "outbox", "drain")
	require.NoError(t, err)
	assert.Contains(t, out, "delivered=0")

	out, err = run(t, "--config", cfg, "outbox", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")
}

func TestMigrate_NeedsPostgres(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, "--config", cfg, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
