package pkg

import (
	"sync"
	"testing"
)

func TestExclusive_Lock(t *testing.T) {
	counter := NewExclusive(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				counter.Lock(func(v *int) { *v++ })
			}
		}()
	}
	wg.Wait()

	var got int
	counter.Lock(func(v *int) { got = *v })
	if got != 8000 {
		t.Errorf("counter = %d, want 8000", got)
	}
}
