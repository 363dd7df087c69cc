package easyboss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/profitboard/backend/internal/domain/costsync"
)

// Downloader fetches the finished export artifact. Result locations are
// either absolute OSS URLs or paths relative to the platform base URL.
// The platform answers with a single redirect to signed storage; a
// second redirect means something is wrong upstream.
type Downloader struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDownloader creates a downloader writing into the configured
// download directory.
func NewDownloader(config *Config, logger *zap.Logger) *Downloader {
	return &Downloader{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
			// Redirects are followed manually, once.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger.Named("download"),
	}
}

// Download fetches the artifact at resultLocation into the download
// directory and returns the local path. Empty artifacts are an error.
func (d *Downloader) Download(ctx context.Context, session *costsync.Session, resultLocation string) (string, error) {
	target := resultLocation
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = d.config.BaseURL + "/" + strings.TrimPrefix(target, "/")
	}

	resp, err := d.fetch(ctx, session, target)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(d.config.DownloadDir, 0o755); err != nil {
		return "", costsync.NewDownloadError("create download directory", err)
	}

	path := filepath.Join(d.config.DownloadDir, artifactFileName(target))
	file, err := os.Create(path)
	if err != nil {
		return "", costsync.NewDownloadError("create artifact file", err)
	}

	size, err := io.Copy(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", costsync.NewDownloadError("write artifact", err)
	}
	if size == 0 {
		os.Remove(path)
		return "", costsync.NewDownloadError("artifact is empty", nil)
	}

	d.logger.Info("artifact downloaded", zap.String("path", path), zap.Int64("bytes", size))
	return path, nil
}

// fetch performs the GET, following at most one redirect.
func (d *Downloader) fetch(ctx context.Context, session *costsync.Session, target string) (*http.Response, error) {
	resp, err := d.get(ctx, session, target)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		location := resp.Header.Get("Location")
		resp.Body.Close()
		if location == "" {
			return nil, costsync.NewDownloadError(fmt.Sprintf("redirect %d without location", resp.StatusCode), nil)
		}

		resp, err = d.get(ctx, session, location)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			resp.Body.Close()
			return nil, costsync.NewDownloadError("artifact location redirected more than once", nil)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, costsync.NewDownloadError(fmt.Sprintf("artifact fetch returned status %d", resp.StatusCode), nil)
	}
	return resp, nil
}

func (d *Downloader) get(ctx context.Context, session *costsync.Session, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, costsync.NewDownloadError("create download request", err)
	}
	req.Header.Set("Cookie", session.Token)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, costsync.NewDownloadError("download request failed", err)
	}
	return resp, nil
}

// artifactFileName derives a local file name from the target URL,
// falling back to a timestamped name when the URL path is unusable.
func artifactFileName(target string) string {
	base := filepath.Base(strings.SplitN(target, "?", 2)[0])
	if base == "" || base == "." || base == "/" {
		return fmt.Sprintf("export-%d.xlsx", time.Now().UnixNano())
	}
	return base
}
