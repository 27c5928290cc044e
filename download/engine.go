// Package download fetches artifacts with resume, retries, verification and
// content-addressed caching. A destination is either fully verified or absent.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
)

const (
	DefaultAttempts       = 3
	DefaultBackoffBase    = 500 * time.Millisecond
	DefaultBackoffMax     = 8 * time.Second
	DefaultConnectTimeout = 15 * time.Second
	DefaultRequestTimeout = 60 * time.Second
	DefaultAssetFactor    = 8
	DefaultLibraryFactor  = 2
)

const UserAgent = "launchwiz/launchwiz"

// Content types that mean a mirror answered with an error page instead of a binary.
var suspiciousContentTypes = []string{
	"text/html",
	"text/plain",
	"application/json",
	"application/xml",
	"text/xml",
}

type Options struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	Attempts       int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	AssetFactor    int
	LibraryFactor  int

	// LocalCache is the per-installation store, GlobalCache the cross-instance one.
	LocalCache  *Cache
	GlobalCache *Cache

	Logger *zap.Logger
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

type Engine struct {
	opts     Options
	client   *resty.Client
	log      *zap.Logger
	requests atomic.Int64
	sleep    func(ctx context.Context, d time.Duration) error
}

func New(opts Options) *Engine {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = DefaultBackoffMax
	}
	if opts.AssetFactor <= 0 {
		opts.AssetFactor = DefaultAssetFactor
	}
	if opts.LibraryFactor <= 0 {
		opts.LibraryFactor = DefaultLibraryFactor
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := opts.Client
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: opts.ConnectTimeout}).DialContext,
				TLSHandshakeTimeout:   opts.ConnectTimeout,
				ResponseHeaderTimeout: opts.RequestTimeout,
				MaxIdleConnsPerHost:   16,
			},
		}
	}
	client := resty.NewWithClient(httpClient).
		SetHeader("User-Agent", UserAgent).
		SetLogger(log.Sugar())

	e := &Engine{
		opts:   opts,
		client: client,
		log:    log,
		sleep:  sleepCtx,
	}
	client.OnBeforeRequest(func(_ *resty.Client, _ *resty.Request) error {
		e.requests.Add(1)
		return nil
	})
	return e
}

// Requests is the number of HTTP requests issued through Client since the engine was created.
func (e *Engine) Requests() int64 {
	return e.requests.Load()
}

// Client exposes the underlying HTTP client so metadata sources share its transport.
func (e *Engine) Client() *resty.Client {
	return e.client
}

// Fetch makes task.Dest exist and verify, using disk, then caches, then the network.
func (e *Engine) Fetch(ctx context.Context, task Task) (Result, error) {
	task = task.withDefaults(e.opts.Attempts)
	if err := task.validate(); err != nil {
		return Result{}, err
	}

	if fileio.Exists(task.Dest) {
		err := verify(task, task.Dest)
		if err == nil {
			return Result{Task: task, Source: FromDisk}, nil
		}
		e.log.Debug("removing existing file that failed verification", zap.String("dest", task.Dest), zap.Error(err))
		if err := os.Remove(task.Dest); err != nil {
			return Result{}, core.NewError(core.KindIntegrity, "remove corrupt file", task.Dest, err)
		}
	}

	if task.Hash != "" {
		for _, c := range []*Cache{e.opts.LocalCache, e.opts.GlobalCache} {
			entry, ok := c.Lookup(task)
			if !ok {
				continue
			}
			if err := promote(entry, task.Dest); err != nil {
				e.log.Warn("promoting cache entry failed", zap.String("entry", entry), zap.Error(err))
				continue
			}
			e.populateCaches(task)
			return Result{Task: task, Source: FromCache}, nil
		}
	}

	var errs []error
	integrityOnly := true
	for attempt := 0; attempt < task.Attempts; attempt++ {
		if attempt > 0 {
			if err := e.sleep(ctx, e.backoff(attempt)); err != nil {
				errs = append(errs, err)
				integrityOnly = false
				break
			}
		}
		for _, u := range task.URLs {
			n, err := e.download(ctx, task, u)
			if err == nil {
				e.populateCaches(task)
				e.log.Debug("downloaded", zap.String("url", u), zap.String("dest", task.Dest), zap.Int64("bytes", n))
				return Result{Task: task, Source: FromNetwork, URL: u, Bytes: n}, nil
			}
			errs = append(errs, fmt.Errorf("attempt %d %s: %w", attempt+1, u, err))
			if core.KindOf(err) != core.KindIntegrity {
				integrityOnly = false
			}
			if ctx.Err() != nil {
				return Result{}, core.NewError(core.KindNetwork, "download", task.Name, errors.Join(errs...))
			}
		}
	}

	kind := core.KindNetwork
	hint := "check the network connection or configured mirrors and retry"
	if integrityOnly {
		kind = core.KindIntegrity
		hint = "every mirror served content that failed verification"
	}
	return Result{}, core.NewError(kind, "download", task.Name, errors.Join(errs...)).WithHint(hint)
}

func (e *Engine) backoff(attempt int) time.Duration {
	d := e.opts.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= e.opts.BackoffMax {
			return e.opts.BackoffMax
		}
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (e *Engine) populateCaches(task Task) {
	if task.Hash == "" {
		return
	}
	for _, c := range []*Cache{e.opts.LocalCache, e.opts.GlobalCache} {
		if err := c.Store(task.Dest, task.Hash); err != nil {
			e.log.Warn("cache store failed", zap.String("dest", task.Dest), zap.Error(err))
		}
	}
}

// sideFile is a private staging file for one fetch. A resumable partial is
// only ever shared through <dest>.part, which a fetch claims by renaming it
// away, so concurrent fetchers of one destination never write the same file.
type sideFile struct {
	task Task
	path string
}

// claimSideFile takes over <dest>.part when one is left over, otherwise it
// reserves an empty private file next to the destination.
func claimSideFile(task Task) (*sideFile, int64, error) {
	dir := filepath.Dir(task.Dest)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, 0, err
	}
	f, err := os.CreateTemp(dir, filepath.Base(task.Dest)+".*.part")
	if err != nil {
		return nil, 0, err
	}
	side := &sideFile{task: task, path: f.Name()}
	if err := f.Close(); err != nil {
		side.discard()
		return nil, 0, err
	}
	// Rename is atomic: when two fetchers race for a partial, one gets it and
	// the other starts from zero.
	if err := os.Rename(task.partPath(), side.path); err == nil {
		if info, err := os.Stat(side.path); err == nil {
			return side, info.Size(), nil
		}
	}
	return side, 0, nil
}

// keep hands an interrupted partial back under <dest>.part for a later resume.
func (s *sideFile) keep() {
	info, err := os.Stat(s.path)
	if err != nil || info.Size() == 0 {
		s.discard()
		return
	}
	if err := os.Rename(s.path, s.task.partPath()); err != nil {
		s.discard()
	}
}

func (s *sideFile) discard() {
	os.Remove(s.path)
}

// download streams one URL into a private side file, resuming a claimed
// partial when possible, then verifies and promotes it.
func (e *Engine) download(ctx context.Context, task Task, url string) (int64, error) {
	side, offset, err := claimSideFile(task)
	if err != nil {
		return 0, err
	}
	if task.Size > 0 && offset >= task.Size {
		if err := verify(task, side.path); err == nil {
			if err := os.Rename(side.path, task.Dest); err != nil {
				side.discard()
				return offset, err
			}
			return offset, nil
		}
		if err := os.Truncate(side.path, 0); err != nil {
			side.discard()
			return 0, err
		}
		offset = 0
	}

	req := e.client.R().SetContext(ctx).SetDoNotParseResponse(true)
	if offset > 0 {
		req.SetHeader("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	resp, err := req.Get(url)
	if err != nil {
		side.keep()
		return 0, core.NewError(core.KindNetwork, "GET", url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	flags := os.O_WRONLY
	switch resp.StatusCode() {
	case http.StatusPartialContent:
		if !strings.HasPrefix(resp.Header().Get("Content-Range"), fmt.Sprintf("bytes %d-", offset)) {
			side.discard()
			return 0, core.NewError(core.KindNetwork, "resume", url, fmt.Errorf("unexpected Content-Range %q", resp.Header().Get("Content-Range")))
		}
		flags |= os.O_APPEND
	case http.StatusOK:
		flags |= os.O_TRUNC
		offset = 0
	case http.StatusRequestedRangeNotSatisfiable:
		side.discard()
		return 0, core.NewError(core.KindNetwork, "resume", url, fmt.Errorf("range not satisfiable"))
	default:
		side.keep()
		return 0, core.NewError(core.KindNetwork, "GET", url, fmt.Errorf("unexpected status %s", resp.Status()))
	}

	if task.RequireArchive {
		if ct := resp.Header().Get("Content-Type"); suspiciousContentType(ct) {
			side.keep()
			return 0, core.NewError(core.KindIntegrity, "GET", url, fmt.Errorf("suspicious content type %q for an archive", ct))
		}
	}

	f, err := os.OpenFile(side.path, flags, 0o644)
	if err != nil {
		side.discard()
		return 0, err
	}
	n, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if copyErr != nil {
		side.keep()
		return offset + n, core.NewError(core.KindNetwork, "read body", url, copyErr)
	}
	if closeErr != nil {
		side.discard()
		return offset + n, closeErr
	}

	if err := verify(task, side.path); err != nil {
		side.discard()
		return offset + n, err
	}
	if err := os.Rename(side.path, task.Dest); err != nil {
		side.discard()
		return offset + n, err
	}
	return offset + n, nil
}

func suspiciousContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	}
	for _, s := range suspiciousContentTypes {
		if mediaType == s {
			return true
		}
	}
	return false
}
