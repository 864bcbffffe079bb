package worker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsEveryTask(t *testing.T) {
	p := NewPool(4, 8)
	var done int64
	for i := 0; i < 100; i++ {
		p.Submit(func() { atomic.AddInt64(&done, 1) })
	}
	p.Stop()
	assert.Equal(t, int64(100), atomic.LoadInt64(&done))
}

func TestPoolClampsWorkers(t *testing.T) {
	p := NewPool(0, 0)
	ran := false
	p.Submit(func() { ran = true })
	p.Stop()
	assert.True(t, ran)
}
