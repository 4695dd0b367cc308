package spinlock

import (
	"sync"
	"testing"
)

func TestMutualExclusion(t *testing.T) {
	var sl Spinlock
	var counter int
	var wg sync.WaitGroup

	const goroutines = 32
	const incrementsEach = 1000

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < incrementsEach; j++ {
				sl.Lock()
				counter++
				sl.Unlock()
			}
		}()
	}
	wg.Wait()

	if counter != goroutines*incrementsEach {
		t.Fatalf("counter=%d, want %d (lock failed to serialize)", counter, goroutines*incrementsEach)
	}
}

func TestLockUnlockSingleThreaded(t *testing.T) {
	var sl Spinlock
	sl.Lock()
	sl.Unlock()
	sl.Lock()
	sl.Unlock()
}
