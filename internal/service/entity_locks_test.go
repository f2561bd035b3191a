package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityLocksSerializePerID(t *testing.T) {
	locks := NewEntityLocks()
	const workers = 16
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("invoice-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, workers, counter)
}

func TestEntityLocksReleaseDropsEntry(t *testing.T) {
	locks := NewEntityLocks()
	unlock := locks.Lock("ticket-1")
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}
