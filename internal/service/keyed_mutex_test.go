package service

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex("test", quietLogger())
	defer km.Stop()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("doctor-1")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex("test", quietLogger())
	defer km.Stop()

	unlockA := km.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := km.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on key b blocked while key a was held")
	}
}

func TestKeyedMutexCleanupSkipsHeldLocks(t *testing.T) {
	km := NewKeyedMutex("test", quietLogger())
	defer km.Stop()

	unlockHeld := km.Lock("held")
	km.Lock("idle")()

	cleaned := km.cleanupStale(time.Now().Add(time.Hour))
	if cleaned != 1 {
		t.Fatalf("cleanupStale removed %d mutexes, want 1", cleaned)
	}
	if _, ok := km.locks.Load("held"); !ok {
		t.Error("held mutex was removed")
	}
	unlockHeld()

	// a reclaimed key can be locked again
	km.Lock("idle")()
}

func TestKeyedMutexStopIsIdempotent(t *testing.T) {
	km := NewKeyedMutex("test", quietLogger())
	km.Stop()
	km.Stop()
}
