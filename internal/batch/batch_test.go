package batch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/mockchain/internal/chain"
	"github.com/manifest-network/mockchain/internal/models"
)

const jsonBatch = `{
  "blocks": [
    {"transactions": [
      {"contract": "email-verification", "method": "request-verification",
       "args": [{"type": "buff", "value": "abcd"}], "sender": "wallet_1"}
    ]},
    {"transactions": []}
  ]
}`

const yamlBatch = `blocks:
  - transactions:
      - contract: email-verification
        method: confirm-verification
        args:
          - type: principal
            value: wallet_1
          - type: buff
            value: abcd
        sender: deployer
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_local_files(t *testing.T) {
	cases := []struct {
		name       string
		file       string
		content    string
		wantBlocks int
		wantTxs    int
		wantErr    string
	}{
		{
			name:       "json",
			file:       "batch.json",
			content:    jsonBatch,
			wantBlocks: 2,
			wantTxs:    1,
		},
		{
			name:       "yaml",
			file:       "batch.yaml",
			content:    yamlBatch,
			wantBlocks: 1,
			wantTxs:    1,
		},
		{
			name:       "yml extension",
			file:       "batch.yml",
			content:    yamlBatch,
			wantBlocks: 1,
			wantTxs:    1,
		},
		{
			name:    "unsupported extension",
			file:    "batch.txt",
			content: jsonBatch,
			wantErr: "unsupported batch format",
		},
		{
			name:    "malformed json",
			file:    "batch.json",
			content: `{"blocks": [`,
			wantErr: "error decoding JSON batch",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.file, tc.content)
			b, err := Load(context.Background(), path)
			if tc.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, b.Blocks, tc.wantBlocks)
			assert.Equal(t, tc.wantTxs, b.TransactionCount())
		})
	}
}

func TestLoad_yaml_fields(t *testing.T) {
	b, err := Load(context.Background(), writeFile(t, "batch.yaml", yamlBatch))
	require.NoError(t, err)

	tx := b.Blocks[0].Transactions[0]
	assert.Equal(t, "email-verification", tx.Contract)
	assert.Equal(t, "confirm-verification", tx.Method)
	assert.Equal(t, "deployer", tx.Sender)
	assert.Equal(t, []models.EncodedArg{
		{Type: models.ArgTypePrincipal, Value: "wallet_1"},
		{Type: models.ArgTypeBuff, Value: "abcd"},
	}, tx.Args)
}

func TestLoad_errors(t *testing.T) {
	_, err := Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read batch file")
}

func TestLoad_remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/batch":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(jsonBatch))
		case "/batch.yaml":
			_, _ = w.Write([]byte(yamlBatch))
		case "/scenario":
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write([]byte(yamlBatch))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	b, err := Load(ctx, srv.URL+"/batch")
	require.NoError(t, err)
	assert.Len(t, b.Blocks, 2)

	b, err = Load(ctx, srv.URL+"/batch.yaml")
	require.NoError(t, err)
	assert.Len(t, b.Blocks, 1)

	b, err = Load(ctx, srv.URL+"/scenario")
	require.NoError(t, err)
	assert.Len(t, b.Blocks, 1)

	_, err = Load(ctx, srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestDefault_receipts(t *testing.T) {
	b := Default()
	require.Len(t, b.Blocks, 2)
	assert.Equal(t, 4, b.TransactionCount())

	c := chain.New()
	first := c.MineBlock(b.Blocks[0].Transactions)
	second := c.MineBlock(b.Blocks[1].Transactions)

	assert.Equal(t, uint64(2), first.Height)
	assert.Equal(t, []models.Receipt{{Result: chain.ResultOkTrue}}, first.Receipts)
	assert.Equal(t, uint64(3), second.Height)
	assert.Equal(t, []models.Receipt{
		{Result: chain.ResultOkTrue},
		{Result: chain.ResultErrNotAdmin},
		{Result: chain.ResultOkTrue},
	}, second.Receipts)
}

func TestLoad_remote_extension_ignores_query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(yamlBatch))
	}))
	defer srv.Close()

	b, err := Load(context.Background(), srv.URL+"/batch.yaml?token=x")
	require.NoError(t, err)
	require.Len(t, b.Blocks, 1)
	assert.Equal(t, "deployer", b.Blocks[0].Transactions[0].Sender)
}
