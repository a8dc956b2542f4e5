package datasets

import (
	"context"
	"io"
	"math/rand"
	"time"

	"github.com/neurlang/msahmm/device"
	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/logging"
	"github.com/neurlang/msahmm/parallel"
)

// DefaultPrefetch is the number of batches prepared ahead of consumption
const DefaultPrefetch = 2

type options struct {
	seed     int64
	seeded   bool
	workers  int
	prefetch int
}

// Option configures MakeBatches
type Option func(*options)

// WithSeed fixes the shuffle seed so that two streams over the same indices
// produce identical batches
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed, o.seeded = seed, true
	}
}

// WithWorkers bounds the number of goroutines encoding sequences of one batch
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithPrefetch sets how many batches are buffered ahead of the consumer
func WithPrefetch(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.prefetch = n
		}
	}
}

// Stream is a stream of batches prepared by a background producer. Next and
// Close must be called from a single goroutine.
type Stream struct {
	out    chan *Batch
	cancel context.CancelFunc
	done   chan struct{}
}

// MakeBatches starts a batch stream over indices of store. A nil indices
// selects every sequence. With shuffle the stream is infinite and every pass
// over the indices is a fresh permutation; without shuffle it is one pass in
// order, the last batch possibly short.
func MakeBatches(store SequenceStore, batchSize int, shuffle bool, indices []int, opts ...Option) (*Stream, error) {
	if batchSize <= 0 {
		return nil, errs.Configuration("batch size %d must be positive", batchSize)
	}
	if indices == nil {
		indices = AllIndices(store)
	}
	if len(indices) == 0 {
		return nil, errs.Configuration("no sequences to batch")
	}
	if err := CheckIndices(store, indices); err != nil {
		return nil, err
	}
	var o = options{workers: device.Workers(), prefetch: DefaultPrefetch}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Stream{
		out:    make(chan *Batch, o.prefetch),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p := &producer{
		store:     store,
		batchSize: batchSize,
		shuffle:   shuffle,
		order:     append([]int(nil), indices...),
		workers:   o.workers,
		rng:       rand.New(rand.NewSource(o.seed)),
	}
	p.groups, _ = Groups(indices)
	go p.run(ctx, s)
	return s, nil
}

// Next returns the next batch, or io.EOF after the last batch of a finite stream
func (s *Stream) Next() (*Batch, error) {
	b, ok := <-s.out
	if !ok {
		return nil, io.EOF
	}
	return b, nil
}

// Close stops the producer and releases buffered batches. It is safe to call
// more than once.
func (s *Stream) Close() {
	s.cancel()
	for range s.out {
	}
	<-s.done
}

type producer struct {
	store     SequenceStore
	batchSize int
	shuffle   bool
	order     []int
	groups    map[int]int32
	workers   int
	rng       *rand.Rand

	pass   []int
	pos    int
	passes int
}

// next yields the next dataset index of the index stream
func (p *producer) next() (int, bool) {
	if p.pos == len(p.pass) {
		if !p.shuffle && p.passes > 0 {
			return 0, false
		}
		if p.shuffle {
			if p.pass == nil {
				p.pass = make([]int, len(p.order))
			}
			for k, v := range p.rng.Perm(len(p.order)) {
				p.pass[k] = p.order[v]
			}
			if p.passes > 0 {
				logging.Internal().Debug("index stream reshuffled", "pass", p.passes)
			}
		} else {
			p.pass = p.order
		}
		p.pos = 0
		p.passes++
	}
	i := p.pass[p.pos]
	p.pos++
	return i, true
}

func (p *producer) run(ctx context.Context, s *Stream) {
	defer close(s.done)
	defer close(s.out)
	for ctx.Err() == nil {
		var chunk = make([]int, 0, p.batchSize)
		for len(chunk) < p.batchSize {
			i, ok := p.next()
			if !ok {
				break
			}
			chunk = append(chunk, i)
		}
		if len(chunk) == 0 || ctx.Err() != nil {
			return
		}
		select {
		case s.out <- p.assemble(chunk):
		case <-ctx.Done():
			return
		}
		if len(chunk) < p.batchSize {
			return
		}
	}
}

// assemble encodes the sequences of chunk in parallel, then pads and one-hot
// encodes them as a whole
func (p *producer) assemble(chunk []int) *Batch {
	var rows = make([][]Symbol, len(chunk))
	parallel.ForEach(len(chunk), p.workers, func(k int) {
		rows[k] = Terminate(p.store.Get(chunk[k]))
	})
	padded := Pad(rows)
	seqs, mask := OneHot(padded)
	var b = &Batch{
		Sequences: seqs,
		Mask:      mask,
		Subset:    make([]int32, len(chunk)),
		Labels:    make([]float32, len(chunk)),
		Indices:   chunk,
		Symbols:   padded,
	}
	for k, i := range chunk {
		b.Subset[k] = p.groups[i]
	}
	return b
}
