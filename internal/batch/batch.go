// Package batch loads lists of blocks to mine from local files or remote URLs.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/manifest-network/mockchain/internal/models"
)

var (
	ErrEmptySource       = errors.New("batch source is empty")
	ErrUnsupportedFormat = errors.New("unsupported batch format")
)

type format int

const (
	formatJSON format = iota
	formatYAML
)

// Batch is an ordered list of blocks to mine.
type Batch struct {
	Blocks []BlockSpec `json:"blocks" yaml:"blocks"`
}

// BlockSpec is the transaction list of a single block.
type BlockSpec struct {
	Transactions []models.Transaction `json:"transactions" yaml:"transactions"`
}

// TransactionCount returns the number of transactions across all blocks.
func (b *Batch) TransactionCount() int {
	n := 0
	for _, block := range b.Blocks {
		n += len(block.Transactions)
	}
	return n
}

// Load reads a batch from a local path or an http(s) URL.
func Load(ctx context.Context, source string) (*Batch, error) {
	if source == "" {
		return nil, ErrEmptySource
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return loadRemote(ctx, source)
	}
	return loadFile(source)
}

func loadFile(path string) (*Batch, error) {
	f, err := formatFromExtension(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read batch file %s", path)
	}

	return decode(data, f)
}

func loadRemote(ctx context.Context, rawURL string) (*Batch, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid batch URL %s", rawURL)
	}

	resp, err := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch batch from %s", rawURL)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch batch from %s: status %d", rawURL, resp.StatusCode())
	}

	f := formatJSON
	if ct := resp.Header().Get("Content-Type"); strings.Contains(ct, "yaml") {
		f = formatYAML
	} else if ext, err := formatFromExtension(u.Path); err == nil {
		f = ext
	}

	return decode(resp.Body(), f)
}

func formatFromExtension(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return 0, errors.WithMessagef(ErrUnsupportedFormat, "extension %q", filepath.Ext(path))
	}
}

func decode(data []byte, f format) (*Batch, error) {
	var b Batch
	switch f {
	case formatYAML:
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, errors.WithMessage(err, "error decoding YAML batch")
		}
	default:
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, errors.WithMessage(err, "error decoding JSON batch")
		}
	}
	return &b, nil
}
