package mediation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooper_RunsInOrder(t *testing.T) {
	l := NewLooper(0)

	var mu sync.Mutex
	var got []int
	for i := 0; i < 10; i++ {
		n := i
		l.Post(func() {
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
		})
	}
	l.Close()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestLooper_SurvivesPanic(t *testing.T) {
	l := NewLooper(4)
	ran := false
	l.Post(func() { panic("boom") })
	l.Post(func() { ran = true })
	l.Close()
	assert.True(t, ran)
}

func TestLooper_PostAfterCloseDropped(t *testing.T) {
	l := NewLooper(1)
	l.Close()
	l.Close()
	assert.NotPanics(t, func() {
		l.Post(func() { t.Fatal("must not run") })
	})
}
