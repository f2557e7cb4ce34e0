package webclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryBackoff_Schedule(t *testing.T) {
	b := newRetryBackoff(time.Second, 120*time.Second)

	var got []time.Duration
	for i := 0; i < 9; i++ {
		got = append(got, b.NextBackOff())
	}

	assert.Equal(t, []time.Duration{
		0,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		64 * time.Second,
		120 * time.Second,
		120 * time.Second,
	}, got)
}

func TestRetryBackoff_ResetAndZeroFactor(t *testing.T) {
	b := newRetryBackoff(10*time.Millisecond, time.Second)
	b.NextBackOff()
	assert.Equal(t, 20*time.Millisecond, b.NextBackOff())
	b.Reset()
	assert.Equal(t, time.Duration(0), b.NextBackOff())

	z := newRetryBackoff(0, time.Second)
	for i := 0; i < 5; i++ {
		assert.Equal(t, time.Duration(0), z.NextBackOff())
	}
}

func TestRetryBackoff_HugeShiftCaps(t *testing.T) {
	b := newRetryBackoff(time.Second, time.Minute)
	for i := 0; i < 40; i++ {
		b.NextBackOff()
	}
	assert.Equal(t, time.Minute, b.NextBackOff())
}
