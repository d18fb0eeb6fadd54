package pooler_test

import (
	"fmt"
	"sync/atomic"

	"github.com/SebOuellette/pooler"
)

// Example demonstrates a basic synchronous dispatch
func Example() {
	pool := pooler.New[*int64](4)

	var total int64
	pool.RunWith(&total, func(worker int, total *int64) {
		atomic.AddInt64(total, int64(worker))
	})

	// RunWith has returned, so every worker is done.
	fmt.Println("Total:", total)

	pool.Stop()

	// Output:
	// Total: 6
}

// Example_chunks demonstrates splitting data-parallel work into
// per-worker chunks
func Example_chunks() {
	const workers = 4

	pool := pooler.New[[]int](workers)

	data := make([]int, 100)
	for i := range data {
		data[i] = i + 1
	}

	partial := make([]int64, workers)
	pool.RunWith(data, func(worker int, data []int) {
		chunk := (len(data) + workers - 1) / workers
		lo := worker * chunk
		hi := min(lo+chunk, len(data))
		for _, v := range data[lo:hi] {
			partial[worker] += int64(v)
		}
	})

	var sum int64
	for _, p := range partial {
		sum += p
	}
	fmt.Println("Sum:", sum)

	pool.Stop()

	// Output:
	// Sum: 5050
}
