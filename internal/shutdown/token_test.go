package shutdown_test

import (
	"sync"
	"testing"

	"codeberg.org/mutker/dronecore/internal/shutdown"
	"github.com/stretchr/testify/assert"
)

func TestTokenStartsRunning(t *testing.T) {
	tok := shutdown.NewToken()

	assert.True(t, tok.Running())
	assert.Equal(t, shutdown.ReasonNone, tok.Reason())

	select {
	case <-tok.Done():
		t.Fatal("done closed before stop")
	default:
	}
}

func TestTokenStopsOnce(t *testing.T) {
	tok := shutdown.NewToken()

	assert.True(t, tok.Stop(shutdown.ReasonSignal))
	assert.False(t, tok.Stop(shutdown.ReasonEmergency))

	assert.False(t, tok.Running())
	assert.Equal(t, shutdown.ReasonSignal, tok.Reason())
	<-tok.Done()
}

func TestTokenConcurrentStop(t *testing.T) {
	tok := shutdown.NewToken()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reason := shutdown.ReasonSignal
			if i%2 == 0 {
				reason = shutdown.ReasonEmergency
			}
			if tok.Stop(reason) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.False(t, tok.Running())
	assert.NotEqual(t, shutdown.ReasonNone, tok.Reason())
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "emergency", shutdown.ReasonEmergency.String())
	assert.Equal(t, "signal", shutdown.ReasonSignal.String())
	assert.Equal(t, "none", shutdown.ReasonNone.String())
}
