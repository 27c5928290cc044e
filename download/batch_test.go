package download

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingProgress struct {
	mu       sync.Mutex
	total    int
	done     int
	failed   int
	finished bool
}

func (p *countingProgress) Start(_ Class, total int) { p.total = total }

func (p *countingProgress) Done(_ Class, _ Result, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if err != nil {
		p.failed++
	}
}

func (p *countingProgress) Finish(Class) { p.finished = true }

func TestFetchAllDeduplicatesDestinations(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"), goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"), goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"))

	files := map[string][]byte{}
	var tasks []Task
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		data := []byte(fmt.Sprintf("object-%d", i%10))
		hash := sha1Of(t, data)
		files["/"+hash] = data
		tasks = append(tasks, Task{
			URLs: []string{"/" + hash},
			Dest: filepath.Join(dir, hash[:2], hash),
			Hash: hash,
		})
	}
	fs := &fileServer{files: files}
	srv := httptest.NewServer(fs)
	defer srv.Close()
	for i := range tasks {
		tasks[i].URLs[0] = srv.URL + tasks[i].URLs[0]
	}

	e, _ := newTestEngine(t, srv)
	progress := &countingProgress{}
	results, err := e.FetchAll(context.Background(), tasks, Assets, progress)
	require.NoError(t, err)
	require.Len(t, results, 20)

	assert.Equal(t, 10, progress.total)
	assert.Equal(t, 10, progress.done)
	assert.True(t, progress.finished)
	assert.Equal(t, int64(10), fs.hits.Load())
	for i, r := range results {
		assert.Equal(t, tasks[i].Dest, r.Task.Dest)
	}

	srv.CloseClientConnections()
	srv.Client().CloseIdleConnections()
}

func TestFetchAllReportsEveryTaskOnFailure(t *testing.T) {
	fs := &fileServer{files: map[string][]byte{"/ok": []byte("ok")}}
	srv := httptest.NewServer(fs)
	defer srv.Close()

	e, _ := newTestEngine(t, srv)
	e.opts.LibraryFactor = 1

	dir := t.TempDir()
	tasks := []Task{
		{URLs: []string{srv.URL + "/ok"}, Dest: filepath.Join(dir, "ok")},
		{URLs: []string{srv.URL + "/missing"}, Dest: filepath.Join(dir, "missing"), Attempts: 1},
		{URLs: []string{srv.URL + "/ok"}, Dest: filepath.Join(dir, "ok2")},
	}
	progress := &countingProgress{}
	_, err := e.FetchAll(context.Background(), tasks, Libraries, progress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/missing")
	assert.Equal(t, 3, progress.done)
	assert.GreaterOrEqual(t, progress.failed, 1)
}

func TestLimitScalesWithCPU(t *testing.T) {
	e := New(Options{})
	assert.Equal(t, DefaultAssetFactor*runtime.NumCPU(), e.Limit(Assets))
	assert.Equal(t, DefaultLibraryFactor*runtime.NumCPU(), e.Limit(Libraries))
	assert.Greater(t, e.Limit(Assets), e.Limit(Libraries))
}

func TestBarProgressCompletesOnFailure(t *testing.T) {
	var out bytes.Buffer
	p := NewBarProgress(&out)
	p.Start(Libraries, 2)
	p.Done(Libraries, Result{}, nil)
	p.Done(Libraries, Result{}, fmt.Errorf("boom"))
	p.Finish(Libraries)

	p.Start(Assets, 3)
	p.Done(Assets, Result{}, nil)
	p.Finish(Assets)
	p.Wait()
}
