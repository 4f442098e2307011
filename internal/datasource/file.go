package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/seenimoa/fundalens/pkg/models"
	"github.com/seenimoa/fundalens/pkg/utils"
)

// FileSource replays CompanyData snapshots from disk. Path may be a
// single JSON file, served for any ticker, or a directory holding one
// <TICKER>.json per company.
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name returns the data source name.
func (f *FileSource) Name() string { return "file:" + f.Path }

// FetchCompany reads the snapshot for ticker. The standalone option is
// ignored; a snapshot is whatever was fetched.
func (f *FileSource) FetchCompany(ctx context.Context, ticker string, _ FetchOptions) (*models.CompanyData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := f.Path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, utils.NormalizeTicker(ticker)+".json")
	}
	data, err := ReadSnapshot(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", ticker, ErrTickerNotFound)
	}
	if err != nil {
		return nil, err
	}
	if data.Ticker == "" {
		data.Ticker = utils.NormalizeTicker(ticker)
	}
	return data, nil
}

// ReadSnapshot decodes a CompanyData JSON file.
func ReadSnapshot(path string) (*models.CompanyData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var data models.CompanyData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &data, nil
}

// WriteSnapshot encodes data as indented JSON at path.
func WriteSnapshot(path string, data *models.CompanyData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
