package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sitesCSV = `id,name,location,latitude,longitude,safe_level,warning_level,danger_level,geofence_radius,qr_code,is_active
CWC-001,Patna Ghat,Patna,25.6123,85.1411,40.5,48.2,50.1,150,QR-CWC-001,True
CWC-002,Closed,Buxar,25.57,83.97,1,2,3,100,QR-CWC-002,False
`

type cliEnv struct {
	dir    string
	config string
}

func newCLIEnv(t *testing.T, driver string) cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cfg := filepath.Join(dir, "siteqr.yaml")
	body := fmt.Sprintf("secret_file: %s\nworkers: 2\nledger:\n  driver: %s\n  path: %s\n",
		filepath.Join(dir, "siteqr.secret"), driver, filepath.Join(dir, "ledger."+driver))
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sites.csv"), []byte(sitesCSV), 0600))
	return cliEnv{dir: dir, config: cfg}
}

func (e cliEnv) run(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(append([]string{"--config", e.config}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestCLI_EndToEnd(t *testing.T) {
	for _, driver := range []string{"json", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			e := newCLIEnv(t, driver)

			code, out, _ := e.run("gensecret")
			require.Equal(t, 0, code)
			assert.Contains(t, out, "Secret written")

			code, _, errOut := e.run("gensecret")
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, "already exists")

			tokensPath := filepath.Join(e.dir, "tokens.json")
			code, out, errOut = e.run("generate", "--csv", filepath.Join(e.dir, "sites.csv"), "--out", tokensPath)
			require.Equal(t, 0, code, errOut)
			assert.Contains(t, out, "Issued 2/2 tokens")

			data, err := os.ReadFile(tokensPath)
			require.NoError(t, err)
			var gen generateOutput
			require.NoError(t, json.Unmarshal(data, &gen))
			require.Len(t, gen.Tokens, 2)
			assert.Equal(t, 2, gen.Summary.Successful)
			assert.NotContains(t, string(data), "secret")

			code, out, _ = e.run("validate", gen.Tokens[0].Token, "--lat", "25.6123", "--lng", "85.1411")
			assert.Equal(t, 0, code)
			assert.Contains(t, out, "QR code is valid")
			assert.Contains(t, out, "Within geofence")

			code, out, _ = e.run("validate", gen.Tokens[1].Token)
			assert.Equal(t, 1, code)
			assert.Contains(t, out, "This monitoring site is currently inactive")

			code, out, _ = e.run("validate", "bogus")
			assert.Equal(t, 1, code)
			assert.Contains(t, out, "Invalid QR code format or decryption failed")

			code, out, _ = e.run("ledger", "list", "--site", "CWC-002")
			assert.Equal(t, 0, code)
			assert.Contains(t, out, "QR-CWC-002")
			assert.NotContains(t, out, "QR-CWC-001")
			assert.Contains(t, out, "1 tokens")
		})
	}
}

func TestCLI_GenerateAllFailed(t *testing.T) {
	e := newCLIEnv(t, "json")
	require.Equal(t, 0, first(e.run("gensecret")))
	bad := filepath.Join(e.dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("id,name\nS1,Alpha\n"), 0600))

	code, out, _ := e.run("generate", "--csv", bad, "--out", filepath.Join(e.dir, "t.json"), "--no-ledger")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Failed 1/1 records")
}

func TestCLI_MissingSecret(t *testing.T) {
	e := newCLIEnv(t, "json")
	code, _, errOut := e.run("validate", "anything")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "secret")
}

func first(code int, _, _ string) int { return code }
