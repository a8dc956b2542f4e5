// Package parallel contains the bounded worker pool and sharding helpers used by
// the batch pipeline and the data-parallel execution strategy.
package parallel

import "sync"

// ForEach executes body for every integer in [0, length) with at most limit
// concurrent goroutines. It returns once every body has returned.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return
	}
	if limit == 1 || length == 1 {
		for i := 0; i < length; i++ {
			body(i)
		}
		return
	}

	sem := make(chan struct{}, limit) // Semaphore with buffer size 'limit'
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}

// All runs body once per index in [0, n) concurrently, waits for every
// goroutine (the barrier), and returns the error of the lowest failing index.
func All(n int, body func(i int) error) error {
	if n <= 0 {
		return nil
	}
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = body(i)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Shard splits [0, n) into at most parts contiguous half-open ranges whose
// sizes differ by at most one. Empty ranges are omitted.
func Shard(n, parts int) [][2]int {
	if n <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	o := make([][2]int, 0, parts)
	base, extra := n/parts, n%parts
	var from int
	for p := 0; p < parts; p++ {
		size := base
		if p < extra {
			size++
		}
		o = append(o, [2]int{from, from + size})
		from += size
	}
	return o
}
