package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMock(t *testing.T) {
	assert := assert.New(t)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	m := NewMock(t0)
	assert.Equal(t0, m.Now())
	m.Advance(90 * time.Second)
	assert.Equal(t0.Add(90*time.Second), m.Now())
	m.Set(t0)
	assert.Equal(t0, m.Now())

	var c Clock = System{}
	assert.WithinDuration(time.Now(), c.Now(), time.Second)
}
