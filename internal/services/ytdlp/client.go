package ytdlp

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"stemset/internal/artifact"
	"stemset/internal/fileutil"
	"stemset/internal/services"
	"stemset/internal/services/command"
)

const (
	// acceptedHost is the only source host the pipeline downloads from.
	acceptedHost = "youtube"
	// unavailableMarker appears in the page body of dead or region-locked videos.
	unavailableMarker = `"playabilityStatus":{"status":"ERROR"`
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor command.Executor) Option {
	return func(c *Client) {
		if executor != nil {
			c.exec = executor
		}
	}
}

// WithHTTPClient injects the HTTP client used for candidate liveness probes.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// Client wraps yt-dlp invocations and candidate source selection.
type Client struct {
	binary            string
	attemptsPerSource int
	probeTimeout      time.Duration
	exec              command.Executor
	http              *http.Client
}

// New constructs a yt-dlp client. attemptsPerSource bounds the download
// retries against any single candidate; probeTimeoutSeconds bounds the
// liveness probe.
func New(binary string, attemptsPerSource, probeTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "acquire", "client", "yt-dlp binary required", nil)
	}
	if attemptsPerSource <= 0 {
		attemptsPerSource = 1
	}
	client := &Client{
		binary:            binary,
		attemptsPerSource: attemptsPerSource,
		probeTimeout:      time.Duration(probeTimeoutSeconds) * time.Second,
		exec:              command.System{},
		http:              &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FilterCandidates keeps the item links that belong to the accepted host and
// pass a bounded liveness probe. Ineligible candidates are dropped before any
// download is attempted; a probe error fails fast and drops the candidate.
func (c *Client) FilterCandidates(ctx context.Context, links []string) []string {
	eligible := make([]string, 0, len(links))
	for _, link := range links {
		if !strings.Contains(link, acceptedHost) {
			continue
		}
		if c.probeAvailable(ctx, link) {
			eligible = append(eligible, link)
		}
	}
	return eligible
}

func (c *Client) probeAvailable(ctx context.Context, link string) bool {
	probeCtx := ctx
	if c.probeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, link, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	body := make([]byte, 0, 64*1024)
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		body = append(body, buf[:n]...)
		if strings.Contains(string(body), unavailableMarker) {
			return false
		}
		if readErr != nil {
			break
		}
	}
	return true
}

// Acquire downloads and trims the [start, end) span of the first working
// candidate to destPath. Each candidate gets a bounded number of attempts
// before being dropped; report receives one entry per failed attempt. The
// authoritative success signal is the file existing on disk afterwards.
func (c *Client) Acquire(ctx context.Context, candidates []string, destPath string, startSec, endSec int, report func(string)) error {
	if report == nil {
		report = func(string) {}
	}

	for _, link := range candidates {
		var downloaded bool
		for attempt := 1; attempt <= c.attemptsPerSource; attempt++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := c.fetch(ctx, link, destPath, startSec, endSec)
			if err == nil {
				downloaded = true
				break
			}
			report(fmt.Sprintf("... error when downloading from %s (%v), retrying ...", link, err))
		}
		if downloaded {
			normalizeDoubleExtension(destPath)
			report(fmt.Sprintf("... downloaded successfully from %s", link))
			break
		}
	}

	if !fileutil.Exists(destPath) {
		return services.Wrap(services.ErrAcquisition, "acquire", "download",
			"item could not be downloaded, check input links are working", nil)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, link, destPath string, startSec, endSec int) error {
	args := []string{
		"--quiet",
		"--force-overwrites",
		"--format", fmt.Sprintf("%s/bestaudio[ext=%s]/best", artifact.FileExt, artifact.FileExt),
		"--extract-audio",
		"--audio-format", artifact.FileExt,
		"--download-sections", fmt.Sprintf("*%d-%d", startSec, endSec),
		"--output", destPath,
		link,
	}
	return command.RunWithTimeout(ctx, c.exec, c.binary, args, 0, "acquire", "yt-dlp", nil)
}

// Some fetch tool versions append the requested format even when the output
// template already carries it; rename the double-extension artifact if present.
func normalizeDoubleExtension(destPath string) {
	doubled := destPath + "." + artifact.FileExt
	if fileutil.Exists(doubled) {
		_ = os.Rename(doubled, destPath)
	}
}
