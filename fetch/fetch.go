// Package fetch downloads files over HTTP and verifies their digests.
package fetch

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fontpipe/fontpipe/base"
)

// Fetch streams url into dest, creating parent directories as needed. When
// sha1hex is not empty the download is verified against it and the file is
// removed on mismatch.
func Fetch(ctx context.Context, client *http.Client, url, dest, sha1hex string) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: HTTP %d", url, resp.StatusCode)
	}

	if err = os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}

	hash := sha1.New()
	_, err = io.Copy(io.MultiWriter(f, hash), resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("download %s: %w", url, err)
	}

	if sha1hex != "" {
		if sum := hex.EncodeToString(hash.Sum(nil)); !strings.EqualFold(sum, sha1hex) {
			os.Remove(dest)
			return fmt.Errorf("download %s: SHA1 mismatch, got %s want %s", url, sum, sha1hex)
		}
	}
	base.Logger.Debugf("downloaded %s -> %s", url, dest)
	return nil
}

// SHA256File returns the hex encoded SHA-256 digest of a file.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
