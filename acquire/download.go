// Package acquire fetches the raw daily bike-share table when it is not
// already on disk.
package acquire

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aayushagarwaltech-bot/Transportation/dataset"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/fsutil"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
)

const (
	// ArchiveName is the UCI bundle published next to day.csv.
	ArchiveName = "Bike-Sharing-Dataset.zip"
	memberName  = "day.csv"

	defaultTimeout = 2 * time.Minute
	maxBodyBytes   = 64 << 20
)

// Downloader retrieves the dataset over HTTP.
type Downloader struct {
	client *http.Client
	logger log.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// WithLogger replaces the default logger.
func WithLogger(l log.Logger) Option {
	return func(d *Downloader) { d.logger = l }
}

// New returns a Downloader with a bounded default timeout.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		client: &http.Client{Timeout: defaultTimeout},
		logger: log.GetLoggerWithName("acquire"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HTTPError reports a non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetch makes sure rawPath exists. When it is already present nothing is
// downloaded. Otherwise rawURL is fetched; a 404 falls back to the zip
// archive in the same remote directory, from which day.csv is extracted.
// The payload must parse as a CSV table before it is written, atomically,
// to rawPath.
func (d *Downloader) Fetch(ctx context.Context, rawURL, rawPath string) error {
	logger := d.logger.With(log.PathKey, rawPath)

	ok, err := fsutil.Exists(rawPath)
	if err != nil {
		return err
	}
	if ok {
		logger.Debug("raw dataset already present")
		return nil
	}
	if rawURL == "" {
		return errors.NewValidationError("dataset.url", "no raw file and no url to fetch it from", rawURL)
	}

	start := time.Now()
	body, contentType, err := d.get(ctx, rawURL)
	source := rawURL
	var he *HTTPError
	if errors.As(err, &he) && he.StatusCode == http.StatusNotFound {
		source, err = archiveURL(rawURL)
		if err != nil {
			return err
		}
		logger.Warn("dataset url not found, trying archive", "url", rawURL, "archive", source)
		body, contentType, err = d.get(ctx, source)
	}
	if err != nil {
		return err
	}

	if isZip(source, contentType) {
		body, err = extractMember(source, body, memberName)
		if err != nil {
			return err
		}
	}
	if _, err := dataset.ParseCSV(source, body); err != nil {
		return err
	}
	if err := fsutil.WriteBytesAtomic(rawPath, body, 0o644); err != nil {
		return err
	}
	logger.Info("raw dataset downloaded",
		"url", source,
		"bytes", len(body),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (d *Downloader) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", errors.Wrapf(err, "build request for %s", rawURL)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", errors.Wrapf(err, "GET %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", errors.WithStack(&HTTPError{URL: rawURL, StatusCode: resp.StatusCode})
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, "", errors.Wrapf(err, "read body of %s", rawURL)
	}
	if len(body) > maxBodyBytes {
		return nil, "", errors.NewDataFormatError(rawURL, 0, "response exceeds size limit", nil)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// archiveURL swaps the last path segment of rawURL for the archive name.
func archiveURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse %s", rawURL)
	}
	u.Path = path.Join(path.Dir(u.Path), ArchiveName)
	u.RawQuery = ""
	return u.String(), nil
}

func isZip(source, contentType string) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && strings.Contains(mt, "zip") {
		return true
	}
	u, err := url.Parse(source)
	if err != nil {
		return strings.HasSuffix(strings.ToLower(source), ".zip")
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".zip")
}

// extractMember returns the first archive entry whose base name is member,
// ignoring case.
func extractMember(source string, data []byte, member string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewDataFormatError(source, 0, "not a valid zip archive", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(path.Base(f.Name), member) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.NewDataFormatError(source, 0, "cannot open "+f.Name, err)
		}
		out, err := io.ReadAll(io.LimitReader(rc, maxBodyBytes+1))
		rc.Close()
		if err != nil {
			return nil, errors.NewDataFormatError(source, 0, "cannot read "+f.Name, err)
		}
		if len(out) > maxBodyBytes {
			return nil, errors.NewDataFormatError(source, 0, f.Name+" exceeds size limit", nil)
		}
		return out, nil
	}
	return nil, errors.NewDataFormatError(source, 0, "archive has no "+member, nil)
}
