// Package assets keeps the files BRISQUE needs in a local directory.
//
// The directory is a plain existence-checked store: the key is the file name
// and the value is whatever the asset URL returned the first time it was
// fetched. Files are never revalidated, expired or re-fetched once present.
// Deleting a file is the only way to refresh it.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mchmarny/brisque/pkg/net"
)

const (
	// CacheDirName is the directory created next to the executable by default.
	CacheDirName = ".cache"

	ModelFileName = "brisque_model_live.yml"
	RangeFileName = "brisque_range_live.yml"

	sourceBaseURL = "https://raw.githubusercontent.com/opencv/opencv_contrib/4.x/modules/quality/samples/"
)

var (
	// Model is the trained BRISQUE SVM model.
	Model = Asset{Name: ModelFileName, URL: sourceBaseURL + ModelFileName}

	// Range is the feature scaling calibration that goes with Model.
	Range = Asset{Name: RangeFileName, URL: sourceBaseURL + RangeFileName}

	// BRISQUE lists the pair in provisioning order.
	BRISQUE = []Asset{Model, Range}
)

// Asset is a file stored under Name and fetched from URL when missing.
type Asset struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// FetchError reports an asset that could not be downloaded.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StorageError reports an asset whose local file could not be checked.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("could not access %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store is a directory of assets.
type Store struct {
	dir    string
	client net.HTTPClient
	model  Asset
	rng    Asset
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c net.HTTPClient) Option {
	return func(s *Store) {
		s.client = c
	}
}

// WithSources overrides the model and range assets. Used by tests and mirrors.
func WithSources(model, rng Asset) Option {
	return func(s *Store) {
		s.model = model
		s.rng = rng
	}
}

// NewStore returns a Store rooted at dir. The directory is created on first download.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		client: net.GetHTTPClient(),
		model:  Model,
		rng:    Range,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns where the named asset lives.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Has reports whether the named asset is present.
func (s *Store) Has(name string) (bool, error) {
	_, err := os.Stat(s.Path(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Ensure fetches every missing asset in order. It stops at the first asset
// that cannot be checked or fetched and returns a *StorageError or a
// *FetchError for it.
func (s *Store) Ensure(ctx context.Context, list ...Asset) error {
	for _, a := range list {
		ok, err := s.Has(a.Name)
		if err != nil {
			return &StorageError{Path: s.Path(a.Name), Err: err}
		}
		if ok {
			slog.Debug("asset present", "name", a.Name)
			continue
		}

		path := s.Path(a.Name)
		slog.Debug("fetching asset", "url", a.URL, "path", path)
		if err := net.Download(ctx, s.client, a.URL, path); err != nil {
			return &FetchError{URL: a.URL, Err: err}
		}
	}
	return nil
}

// Assets returns the model and range assets this store provisions.
func (s *Store) Assets() []Asset {
	return []Asset{s.model, s.rng}
}

// Provision ensures the model and range files are present and returns their paths.
func (s *Store) Provision(ctx context.Context) (modelPath, rangePath string, err error) {
	if err := s.Ensure(ctx, s.Assets()...); err != nil {
		return "", "", err
	}
	return s.Path(s.model.Name), s.Path(s.rng.Name), nil
}
