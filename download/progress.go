package download

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"
)

// BarProgress renders one mpb bar per batch class.
type BarProgress struct {
	mu   sync.Mutex
	p    *mpb.Progress
	bars map[Class]*mpb.Bar
}

func NewBarProgress(w io.Writer) *BarProgress {
	return &BarProgress{
		p:    mpb.New(mpb.WithOutput(w), mpb.WithWidth(40)),
		bars: make(map[Class]*mpb.Bar),
	}
}

func (b *BarProgress) Start(class Class, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.bars[class]; ok && !old.Completed() {
		old.Abort(false)
	}
	b.bars[class] = b.p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(class.String(), decor.WC{W: 10, C: decor.DidentRight}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
}

// Done advances the bar for failures too so Wait never blocks on an unfinished bar.
func (b *BarProgress) Done(class Class, _ Result, _ error) {
	b.mu.Lock()
	bar := b.bars[class]
	b.mu.Unlock()
	if bar != nil {
		bar.Increment()
	}
}

func (b *BarProgress) Finish(class Class) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bar, ok := b.bars[class]; ok && !bar.Completed() {
		bar.Abort(false)
	}
}

// Wait blocks until every bar has rendered its final state.
func (b *BarProgress) Wait() {
	b.p.Wait()
}
