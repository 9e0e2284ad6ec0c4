package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const people = `name,age,city
Ann,71,Oslo
Bob,50,Rome
Cid,34,Oslo
`

// workspace writes a file-backed configuration and a CSV fixture
func workspace(t *testing.T) (configPath, csvPath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "ndstore.yaml")
	csvPath = filepath.Join(dir, "people.csv")

	cfg := "log: {level: disabled}\nstorage: {backend: file, path: " + filepath.Join(dir, "data") + "}\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(csvPath, []byte(people), 0o644))
	return configPath, csvPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ndstore", cmd.Use)

	for _, name := range []string{"import", "query", "stats", "groups", "serve"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	cfg, _ := workspace(t)
	_, err := execute(t, "--config", cfg, "--format", "xml", "stats", "--id", "p", "age")
	assert.ErrorContains(t, err, "invalid format")
}

func TestImportAppends(t *testing.T) {
	cfg, csv := workspace(t)

	out, err := execute(t, "--config", cfg, "import", "--id", "people", csv)
	require.NoError(t, err)
	assert.Equal(t, "imported 3 records into people (3 total)\n", out)

	out, err = execute(t, "--config", cfg, "--format", "json", "import", "--id", "people", csv)
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, float64(3), res["imported"])
	assert.Equal(t, float64(6), res["total"])
}

func TestImportErrors(t *testing.T) {
	cfg, csv := workspace(t)

	_, err := execute(t, "--config", cfg, "import", csv)
	assert.Error(t, err, "--id is required")

	_, err = execute(t, "--config", cfg, "import", "--id", "p", "--sep", ";;", csv)
	assert.ErrorContains(t, err, "single character")

	_, err = execute(t, "--config", cfg, "import", "--id", "p", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	cfg, csv := workspace(t)
	_, err := execute(t, "--config", cfg, "import", "--id", "people", csv)
	require.NoError(t, err)

	out, err := execute(t, "--config", cfg, "query", "--id", "people", "city", "==", "Oslo", "and", "age", ">", "40")
	require.NoError(t, err)
	assert.Equal(t, `{"age":71,"city":"Oslo","name":"Ann"}`+"\n(1 records)\n", out)

	out, err = execute(t, "--config", cfg, "--format", "json", "query", "--id", "people",
		"--sort-by", "age", "--limit", "2", "age", ">", "0")
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Cid", records[0]["name"])
	assert.Equal(t, "Bob", records[1]["name"])

	_, err = execute(t, "--config", cfg, "query", "--id", "people", "age", "~", "1")
	assert.Error(t, err)

	_, err = execute(t, "--config", cfg, "query", "--id", "missing", "age", ">", "1")
	assert.ErrorContains(t, err, "missing")
}

func TestStatsAndGroups(t *testing.T) {
	cfg, csv := workspace(t)
	_, err := execute(t, "--config", cfg, "import", "--id", "people", csv)
	require.NoError(t, err)

	out, err := execute(t, "--config", cfg, "--format", "json", "stats", "--id", "people", "age")
	require.NoError(t, err)
	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, float64(3), stats["count"])
	assert.Equal(t, float64(155), stats["sum"])
	assert.Equal(t, float64(34), stats["min"])
	assert.Equal(t, float64(71), stats["max"])

	out, err = execute(t, "--config", cfg, "stats", "--id", "people", "height")
	require.NoError(t, err)
	assert.Contains(t, out, "min     -")

	out, err = execute(t, "--config", cfg, "groups", "--id", "people", "city")
	require.NoError(t, err)
	assert.Equal(t, []string{"Oslo\t2", "Rome\t1"}, strings.Split(strings.TrimSpace(out), "\n"))
}

func TestServeFlags(t *testing.T) {
	cmd := NewRootCommand()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	timeout := serve.Flags().Lookup("shutdown-timeout")
	require.NotNil(t, timeout)
	assert.Equal(t, "10s", timeout.DefValue)
	assert.NotNil(t, serve.Flags().Lookup("addr"))
}
