package importlock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skybison/corevm/object"
)

// TestImportSerializesConcurrentInitAndRunsOnce is scenario F: two
// threads import module M whose initializer takes 10ms; the sum of
// both threads' own measured durations is at least 20ms (proof that
// the second thread was blocked for the first's whole run rather than
// racing it), both observe the same module value, and the initializer
// itself only runs once.
func TestImportSerializesConcurrentInitAndRunsOnce(t *testing.T) {
	lock := New[object.Ref]()
	var runs int32

	init := func() (object.Ref, error) {
		atomic.AddInt32(&runs, 1)
		time.Sleep(10 * time.Millisecond)
		return object.NewSmallInt(7), nil
	}

	var wg sync.WaitGroup
	durations := make([]time.Duration, 2)
	results := make([]object.Ref, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			start := time.Now()
			ref, err := lock.Import("M", init)
			if err != nil {
				t.Error(err)
			}
			durations[idx] = time.Since(start)
			results[idx] = ref
		}(i)
	}
	wg.Wait()

	if runs != 1 {
		t.Fatalf("initializer ran %d times, want 1", runs)
	}
	if results[0] != results[1] {
		t.Fatalf("imports observed different module values: %v vs %v", results[0], results[1])
	}
	total := durations[0] + durations[1]
	if total < 20*time.Millisecond {
		t.Fatalf("combined import duration = %v, want >= 20ms (proves serialization)", total)
	}
	if !lock.Imported("M") {
		t.Fatal("expected M to be marked imported")
	}
}
