package relay_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sagarc03/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnection_Claim(t *testing.T) {
	conn := relay.NewConnection(httptest.NewRecorder())

	assert.False(t, conn.HeadersSent())
	assert.True(t, conn.Claim())
	assert.True(t, conn.HeadersSent())
	assert.False(t, conn.Claim())
}

func TestConnection_ClaimConcurrent(t *testing.T) {
	conn := relay.NewConnection(httptest.NewRecorder())

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if conn.Claim() {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestConnection_Write(t *testing.T) {
	rec := httptest.NewRecorder()
	conn := relay.NewConnection(rec)

	conn.Header().Set("X-Test", "1")
	conn.WriteHeader(http.StatusCreated)
	_, err := conn.Write([]byte("body"))
	require.NoError(t, err)
	conn.Flush()

	assert.True(t, conn.HeadersSent())
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Test"))
	assert.Equal(t, "body", rec.Body.String())
	assert.Same(t, rec, conn.Unwrap())
}

func TestConnection_End(t *testing.T) {
	conn := relay.NewConnection(httptest.NewRecorder())

	select {
	case <-conn.Done():
		t.Fatal("done before End")
	default:
	}

	conn.End()
	conn.End()

	select {
	case <-conn.Done():
	default:
		t.Fatal("not done after End")
	}
	assert.False(t, conn.Aborted())
}

func TestConnection_Abort(t *testing.T) {
	conn := relay.NewConnection(httptest.NewRecorder())

	conn.Abort()

	<-conn.Done()
	assert.True(t, conn.Aborted())
}
