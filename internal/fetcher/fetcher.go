// Package fetcher downloads the equipment extract from an HTTP(S) or FTP
// location and installs it atomically at the configured source path.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher retrieves a remote resource.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// ConditionalFetcher can skip a download when the remote entity tag matches.
type ConditionalFetcher interface {
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}

// Options configures Fetch.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// Member selects the file to extract when the URL points at a ZIP
	// archive. Empty means the archive must hold exactly one CSV file.
	Member string
	// ETag from a previous fetch; an unchanged resource is not downloaded.
	ETag string
}

// Result describes a completed fetch.
type Result struct {
	URL     string `json:"url"`
	Path    string `json:"path"`
	Bytes   int64  `json:"bytes"`
	Archive bool   `json:"archive,omitempty"`
	Member  string `json:"member,omitempty"`
	ETag    string `json:"etag,omitempty"`
	// NotModified is set when the server confirmed the previous ETag and
	// dest was left as is.
	NotModified bool `json:"not_modified,omitempty"`
}

// New returns the fetcher for the URL scheme.
func New(rawURL string, opts Options) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: parse url")
	}
	switch u.Scheme {
	case "http", "https":
		return NewHTTPFetcher(HTTPOptions{
			UserAgent:  opts.UserAgent,
			Timeout:    opts.Timeout,
			MaxRetries: opts.MaxRetries,
		}), nil
	case "ftp":
		return NewFTPFetcher(FTPOptions{Timeout: opts.Timeout}), nil
	default:
		return nil, eris.Errorf("fetch: unsupported scheme %q", u.Scheme)
	}
}

// Fetch downloads rawURL to dest. ZIP archives are unpacked and only the
// selected member is installed. dest is replaced atomically; on failure the
// previous file is left untouched.
func Fetch(ctx context.Context, rawURL, dest string, opts Options) (*Result, error) {
	f, err := New(rawURL, opts)
	if err != nil {
		return nil, err
	}
	return fetchWith(ctx, f, rawURL, dest, opts)
}

func fetchWith(ctx context.Context, f Fetcher, rawURL, dest string, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("component", "fetcher"), zap.String("url", rawURL))

	body, etag, changed, err := open(ctx, f, rawURL, opts.ETag)
	if err != nil {
		return nil, err
	}
	if !changed {
		log.Info("source not modified", zap.String("etag", etag))
		return &Result{URL: rawURL, Path: dest, ETag: etag, NotModified: true}, nil
	}
	defer body.Close() //nolint:errcheck

	if !isZIP(rawURL) {
		n, err := writeAtomic(dest, body)
		if err != nil {
			return nil, err
		}
		log.Info("source downloaded", zap.String("path", dest), zap.Int64("bytes", n))
		return &Result{URL: rawURL, Path: dest, Bytes: n, ETag: etag}, nil
	}

	tmpDir, err := os.MkdirTemp("", "cityequip-fetch-*")
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create temp dir")
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck

	archive := filepath.Join(tmpDir, "source.zip")
	if _, err := writeAtomic(archive, body); err != nil {
		return nil, err
	}
	name, n, err := ExtractMember(archive, opts.Member, dest)
	if err != nil {
		return nil, err
	}
	log.Info("source extracted", zap.String("path", dest), zap.String("member", name), zap.Int64("bytes", n))
	return &Result{URL: rawURL, Path: dest, Bytes: n, Archive: true, Member: name, ETag: etag}, nil
}

func open(ctx context.Context, f Fetcher, rawURL, etag string) (io.ReadCloser, string, bool, error) {
	if cf, ok := f.(ConditionalFetcher); ok {
		return cf.DownloadIfChanged(ctx, rawURL, etag)
	}
	body, err := f.Download(ctx, rawURL)
	return body, "", err == nil, err
}

// writeAtomic copies r into a temp file next to dest and renames it over dest.
func writeAtomic(dest string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()        //nolint:errcheck
		os.Remove(tmpName) //nolint:errcheck
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		cleanup()
		return n, eris.Wrap(err, "write file")
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return n, eris.Wrap(err, "sync file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return n, eris.Wrap(err, "close file")
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return n, eris.Wrap(err, "rename file")
	}
	return n, nil
}

func isZIP(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".zip")
}
