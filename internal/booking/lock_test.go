package booking

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockAllDeduplicatesKeys(t *testing.T) {
	km := newKeyedMutex()

	// duplicate and empty keys must not deadlock or panic
	unlock := km.lockAll("restaurant:1", "restaurant:1", "", "room:204")
	unlock()

	// keys are reusable after release
	unlock = km.lockAll("restaurant:1")
	unlock()
}

func TestLockAllOppositeOrderDoesNotDeadlock(t *testing.T) {
	km := newKeyedMutex()

	const rounds = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			unlock := km.lockAll("restaurant:1", "room:204")
			unlock()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			unlock := km.lockAll("room:204", "restaurant:1")
			unlock()
		}
	}()
	wg.Wait()
}

func TestLockAllMutualExclusion(t *testing.T) {
	km := newKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	const workers = 16
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				unlock := km.lockAll("restaurant:1")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, workers*100, counter)
}
