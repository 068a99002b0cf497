package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	readings [][2]float64
	i        int
}

func (f *fakeProbe) Sample() (float64, float64, error) {
	r := f.readings[f.i]
	if f.i < len(f.readings)-1 {
		f.i++
	}
	return r[0], r[1], nil
}

func TestMonitor_CleanupTriggersAboveEighty(t *testing.T) {
	triggered := 0
	fp := &fakeProbe{readings: [][2]float64{{10, 85}}}
	m := NewMonitor(fp, func() { triggered++ })

	_, _, err := m.Sample()
	require.NoError(t, err)
	assert.Equal(t, 1, triggered)
	assert.False(t, m.DegradedMode())
}

func TestMonitor_DegradedModeAboveNinety(t *testing.T) {
	fp := &fakeProbe{readings: [][2]float64{{10, 95}}}
	m := NewMonitor(fp, nil)

	_, _, err := m.Sample()
	require.NoError(t, err)
	assert.True(t, m.DegradedMode())
}

func TestMonitor_ClearsAtOrBelowSeventyFive(t *testing.T) {
	fp := &fakeProbe{readings: [][2]float64{{10, 95}, {10, 70}}}
	m := NewMonitor(fp, nil)

	_, _, _ = m.Sample()
	require.True(t, m.DegradedMode())

	_, _, err := m.Sample()
	require.NoError(t, err)
	assert.False(t, m.DegradedMode())
}

func TestMonitor_HistoryBounded(t *testing.T) {
	fp := &fakeProbe{readings: [][2]float64{{1, 1}}}
	m := NewMonitor(fp, nil)
	for i := 0; i < historyCap+10; i++ {
		_, _, _ = m.Sample()
	}
	cpu, mem := m.History()
	assert.Len(t, cpu, historyCap)
	assert.Len(t, mem, historyCap)
}
