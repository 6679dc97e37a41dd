package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCapturer produces a solid-color frame of fixed size and never fails,
// letting Manager tests run without a real display.
type fakeCapturer struct {
	width, height int
}

func (f fakeCapturer) Displays() ([]DisplayInfo, error) {
	return []DisplayInfo{{ID: 0, Title: "fake", IsPrimary: true}}, nil
}

func (f fakeCapturer) CaptureBGRA(DisplayInfo) (int, int, []byte, error) {
	return f.width, f.height, make([]byte, f.width*f.height*4), nil
}

func validConfig() Config {
	return Config{FPS: 10, Quality: 80, Port: 9123}
}

func TestManagerStartRejectsInvalidConfig(t *testing.T) {
	m := NewManager(fakeCapturer{width: 4, height: 4}, capTestLogger())

	_, err := m.Start(Config{FPS: 0, Quality: 80, Port: 9123}, nil)
	assert.Error(t, err)

	_, err = m.Start(Config{FPS: 10, Quality: 0, Port: 9123}, nil)
	assert.Error(t, err)

	_, err = m.Start(Config{FPS: 10, Quality: 80, Port: 80}, nil)
	assert.Error(t, err)
}

func TestManagerStartStatusStop(t *testing.T) {
	m := NewManager(fakeCapturer{width: 4, height: 4}, capTestLogger())

	status, err := m.Start(validConfig(), nil)
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, 9123, status.Port)

	status = m.Status()
	assert.True(t, status.Active)

	require.NoError(t, m.Stop())

	status = m.Status()
	assert.False(t, status.Active)
}

func TestManagerStartTwiceIsConflict(t *testing.T) {
	m := NewManager(fakeCapturer{width: 4, height: 4}, capTestLogger())

	_, err := m.Start(validConfig(), nil)
	require.NoError(t, err)
	defer m.Stop()

	_, err = m.Start(Config{FPS: 5, Quality: 50, Port: 9124}, nil)
	assert.Error(t, err)
}

func TestManagerStopWithoutStartIsNoop(t *testing.T) {
	m := NewManager(fakeCapturer{width: 4, height: 4}, capTestLogger())
	assert.NoError(t, m.Stop())
}

func TestManagerListDisplays(t *testing.T) {
	m := NewManager(fakeCapturer{width: 4, height: 4}, capTestLogger())
	displays, err := m.ListDisplays()
	require.NoError(t, err)
	require.Len(t, displays, 1)
	assert.True(t, displays[0].IsPrimary)
}

func TestManagerShutdownStopsActiveStream(t *testing.T) {
	m := NewManager(fakeCapturer{width: 4, height: 4}, capTestLogger())

	_, err := m.Start(validConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, m.Shutdown(nil))

	waitFor := time.Now().Add(time.Second)
	for time.Now().Before(waitFor) && m.Status().Active {
		time.Sleep(10 * time.Millisecond)
	}
	assert.False(t, m.Status().Active)
}
