package postprocess

import (
	"errors"
	"fmt"
	"sync"

	"github.com/swdee/go-samtrace"
)

// ErrPoolClosed is returned when work is submitted to a closed Pool
var ErrPoolClosed = errors.New("pool closed")

// Pool is a simple pool of SAM post processors for tracing the masks of an
// all objects result across multiple goroutines
type Pool struct {
	// pool of post processors
	workers chan *SAM
	// size of pool
	size int
	// mu guards closed against Return racing Close
	mu     sync.Mutex
	closed bool
}

// NewPool creates a new pool of size post processors sharing the same
// parameters
func NewPool(size int, p SAMParams) (*Pool, error) {

	if size <= 0 {
		return nil, fmt.Errorf("invalid pool size %d", size)
	}

	pool := &Pool{
		workers: make(chan *SAM, size),
		size:    size,
	}

	for i := 0; i < size; i++ {
		pool.Return(NewSAM(p))
	}

	return pool, nil
}

// Size returns the number of post processors in the pool
func (p *Pool) Size() int {
	return p.size
}

// Get a post processor from the pool, blocks until one is free.  Returns nil
// once the pool is closed
func (p *Pool) Get() *SAM {
	return <-p.workers
}

// Return a post processor to the pool, it is dropped if the pool is closed
func (p *Pool) Return(sam *SAM) {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	select {
	case p.workers <- sam:
	default:
		// pool is full
	}
}

// Close the pool.  Post processors still checked out are dropped when
// returned
func (p *Pool) Close() {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.workers)

	// drain
	for range p.workers {
	}
}

// AllObjects decodes and traces every mask of an all objects result with up
// to Size() masks in flight.  Results are in mask order and, as with
// SAM.AllObjects, any failure aborts the whole call reporting the lowest
// failing index.
func (p *Pool) AllObjects(masks []samtrace.EncodedMask, imageHeight int,
	target samtrace.Size) ([]ObjectOutline, error) {

	outlines := make([]ObjectOutline, len(masks))
	errs := make([]error, len(masks))

	var wg sync.WaitGroup

	for i, em := range masks {
		sam := p.Get()

		if sam == nil {
			wg.Wait()
			return nil, ErrPoolClosed
		}

		wg.Add(1)

		go func(i int, em samtrace.EncodedMask, sam *SAM) {
			defer wg.Done()
			defer p.Return(sam)

			outlines[i], errs[i] = sam.traceObject(i, em, imageHeight, target)
		}(i, em, sam)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return outlines, nil
}
