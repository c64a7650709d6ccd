package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// Interval for cleaning up stale mutexes
	mutexCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	mutexStaleThreshold = 10 * time.Minute
)

// KeyedMutex serializes work per key (a doctor's queue, an invoice) while
// letting different keys proceed in parallel. Idle mutexes are reclaimed by
// a background loop; call Stop during graceful shutdown.
type KeyedMutex struct {
	name string
	log  *logrus.Logger

	locks sync.Map // map[string]*mutexWithTimestamp

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup
type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

func NewKeyedMutex(name string, log *logrus.Logger) *KeyedMutex {
	km := &KeyedMutex{
		name:     name,
		log:      log,
		stopChan: make(chan struct{}),
	}

	km.wg.Add(1)
	go km.cleanupLoop()

	return km
}

// Lock blocks until key is free and returns the matching unlock func
func (k *KeyedMutex) Lock(key string) func() {
	for {
		mt := k.get(key)
		mt.mu.Lock()
		// cleanup may have dropped this mutex between load and lock
		if current, ok := k.locks.Load(key); ok && current == mt {
			mt.lastUsed.Store(time.Now().Unix())
			return mt.mu.Unlock
		}
		mt.mu.Unlock()
	}
}

// Stop gracefully shuts down the cleanup loop.
// Safe to call multiple times.
func (k *KeyedMutex) Stop() {
	if k.stopped.CompareAndSwap(false, true) {
		close(k.stopChan)
		k.wg.Wait()
		k.log.Debugf("KeyedMutex %s stopped", k.name)
	}
}

func (k *KeyedMutex) get(key string) *mutexWithTimestamp {
	mt, _ := k.locks.LoadOrStore(key, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

func (k *KeyedMutex) cleanupLoop() {
	defer k.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-k.stopChan:
			return
		case <-ticker.C:
			k.cleanupStale(time.Now().Add(-mutexStaleThreshold))
		}
	}
}

// cleanupStale removes mutexes unused since cutoff. TryLock skips any that
// are held, and lastUsed is checked under the lock.
func (k *KeyedMutex) cleanupStale(cutoff time.Time) int {
	var cleaned int

	k.locks.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoff.Unix() {
				k.locks.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		k.log.Debugf("KeyedMutex %s: cleaned up %d stale mutexes", k.name, cleaned)
	}
	return cleaned
}
