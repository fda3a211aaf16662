package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

var ErrorURLNotFound = errors.New("URL not found")

func getResp(ctx context.Context, c HTTPClient, url string) (*http.Response, error) {
	if c == nil {
		c = GetHTTPClient()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP Get request: %w", err)
	}

	req.Header.Set("User-Agent", clientAgent)

	return c.Do(req) //nolint:gosec // G704: URL from internal callers, not user input
}

// Download fetches url and writes the body to path. The content is first
// written to a temporary file in the same directory and renamed into place,
// so path either does not exist or holds a complete response body.
// A nil client uses GetHTTPClient.
func Download(ctx context.Context, c HTTPClient, url, path string) (retErr error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}

	resp, err := getResp(ctx, c, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	PrintHTTPResponse(resp)

	if resp.StatusCode == http.StatusNotFound {
		return ErrorURLNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error downloading file (status: %d - %s): %s", resp.StatusCode, resp.Status, url)
	}

	out, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmp := out.Name()
	defer func() {
		if retErr != nil {
			os.Remove(tmp)
		}
	}()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		return fmt.Errorf("error saving downloaded content to file: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}

	if err := os.Chmod(tmp, fileMode); err != nil {
		return fmt.Errorf("error setting file mode: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("error moving downloaded file into place: %w", err)
	}

	slog.Debug("downloaded", "url", url, "path", path, "bytes", n)
	return nil
}
