package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemscan/internal/domain"
)

// feedServer is a minimal price feed: it echoes a tick for every token in
// each subscribe request.
func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req streamRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Op != "subscribe" {
				continue
			}
			for _, tokenID := range req.Tokens {
				frame := streamFrame{
					TokenID:     tokenID,
					PriceUSD:    1.5,
					VolumeUSD:   25000,
					TimestampMs: 1_700_000_000_000,
				}
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestPriceStreamSubscribeReceivesTicks(t *testing.T) {
	srv := feedServer(t)

	stream, err := NewPriceStream(context.Background(), wsURL(srv), nil)
	require.NoError(t, err)
	defer stream.Close()

	ticks, err := stream.Subscribe("glowcoin")
	require.NoError(t, err)

	select {
	case tick := <-ticks:
		assert.Equal(t, "glowcoin", tick.TokenID)
		assert.Equal(t, 1.5, tick.PriceUSD)
		assert.Equal(t, 25000.0, tick.VolumeUSD)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

func TestPriceStreamSubscribeValidation(t *testing.T) {
	srv := feedServer(t)

	stream, err := NewPriceStream(context.Background(), wsURL(srv), nil)
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Subscribe("")
	assert.ErrorIs(t, err, domain.ErrInvalidTokenConfig)
}

func TestPriceStreamSubscribeIsIdempotent(t *testing.T) {
	srv := feedServer(t)

	stream, err := NewPriceStream(context.Background(), wsURL(srv), nil)
	require.NoError(t, err)
	defer stream.Close()

	first, err := stream.Subscribe("glowcoin")
	require.NoError(t, err)
	second, err := stream.Subscribe("glowcoin")
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeated subscriptions share one channel")
}

func TestPriceStreamDialFailure(t *testing.T) {
	_, err := NewPriceStream(context.Background(), "ws://127.0.0.1:1/feed", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "websocket dial")
}

func TestPriceStreamCloseClosesChannels(t *testing.T) {
	srv := feedServer(t)

	stream, err := NewPriceStream(context.Background(), wsURL(srv), nil)
	require.NoError(t, err)

	ticks, err := stream.Subscribe("glowcoin")
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close(), "double close is a no-op")

	// Channel closes once buffered ticks drain.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, open := <-ticks:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("tick channel never closed")
		}
	}
}

func TestPriceStreamSubscribeAfterClose(t *testing.T) {
	srv := feedServer(t)

	stream, err := NewPriceStream(context.Background(), wsURL(srv), nil)
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	_, err = stream.Subscribe("glowcoin")
	assert.Error(t, err)
}

func TestPriceTickLatestPoint(t *testing.T) {
	tick := PriceTick{TokenID: "glowcoin", PriceUSD: 2.5, TimestampMs: 42}
	point := tick.LatestPoint()
	assert.Equal(t, domain.PricePoint{TimestampMs: 42, Value: 2.5}, point)
}
