package download

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Progress receives batch lifecycle callbacks. Done is called for every task,
// including failed and cancelled ones.
type Progress interface {
	Start(class Class, total int)
	Done(class Class, result Result, err error)
	Finish(class Class)
}

type nopProgress struct{}

func (nopProgress) Start(Class, int)          {}
func (nopProgress) Done(Class, Result, error) {}
func (nopProgress) Finish(Class)              {}

// Limit is the number of concurrent fetches allowed for a class.
func (e *Engine) Limit(class Class) int {
	factor := e.opts.LibraryFactor
	if class == Assets {
		factor = e.opts.AssetFactor
	}
	return factor * runtime.NumCPU()
}

// FetchAll runs tasks with bounded fan-out. Tasks sharing a destination are
// fetched once. The first failure cancels the rest of the batch.
func (e *Engine) FetchAll(ctx context.Context, tasks []Task, class Class, progress Progress) ([]Result, error) {
	if progress == nil {
		progress = nopProgress{}
	}

	unique := make([]Task, 0, len(tasks))
	indexOf := make(map[string]int, len(tasks))
	owner := make([]int, len(tasks))
	for i, t := range tasks {
		if j, ok := indexOf[t.Dest]; ok {
			owner[i] = j
			continue
		}
		indexOf[t.Dest] = len(unique)
		owner[i] = len(unique)
		unique = append(unique, t)
	}

	progress.Start(class, len(unique))
	defer progress.Finish(class)

	sem := semaphore.NewWeighted(int64(e.Limit(class)))
	g, gctx := errgroup.WithContext(ctx)
	results := make([]Result, len(unique))

	for i, task := range unique {
		if err := sem.Acquire(gctx, 1); err != nil {
			for _, skipped := range unique[i:] {
				progress.Done(class, Result{Task: skipped}, err)
			}
			break
		}
		i, task := i, task
		g.Go(func() error {
			defer sem.Release(1)
			r, err := e.Fetch(gctx, task)
			progress.Done(class, r, err)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Result, len(tasks))
	for i := range tasks {
		out[i] = results[owner[i]]
	}
	return out, nil
}
