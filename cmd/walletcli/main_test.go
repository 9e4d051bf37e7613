package main

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/transfers"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGentableAndDecrypt(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "table.bin")
	_, _, err := run(t, "", "gentable", "--size", "32", "--out", table, "--log-level", "error")
	require.NoError(t, err)

	sk, err := elgamal.GenerateSecretKey(group.BLS12381G1().Generator(), rand.Reader)
	require.NoError(t, err)
	ea, _, err := transfers.EncryptAmount(sk.PublicKey(), 1000, rand.Reader)
	require.NoError(t, err)
	input, err := json.Marshal(map[string]interface{}{"encryptedAmount": ea, "encryptionSecretKey": sk})
	require.NoError(t, err)

	out, _, err := run(t, string(input), "call", "decrypt_encrypted_amount", "-", "--table", table, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "1000\n", out)

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(dir, "wallet.yaml")
		conf := "table:\n  path: " + table + "\nlog:\n  level: error\n"
		require.NoError(t, os.WriteFile(path, []byte(conf), 0o600))
		inFile := filepath.Join(dir, "input.json")
		require.NoError(t, os.WriteFile(inFile, input, 0o600))

		out, _, err := run(t, "", "call", "decrypt_encrypted_amount", inFile, "--config", path)
		require.NoError(t, err)
		assert.Equal(t, "1000\n", out)
	})
}

func TestCallFailure(t *testing.T) {
	t.Setenv("WALLET_TABLE_SIZE", "16")
	_, stderr, err := run(t, `{}`, "call", "create_transfer", "-", "--log-level", "error")
	assert.Equal(t, errFailed, err)
	assert.Equal(t, "Could not produce response: Field from not present, but should be.\n", stderr)

	_, _, err = run(t, "", "call", "create_transfer", "missing.json")
	assert.Error(t, err)
}

func TestOperations(t *testing.T) {
	out, _, err := run(t, "", "operations")
	require.NoError(t, err)
	assert.Contains(t, out, "create_id_request_and_private_data\n")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 10)
}
