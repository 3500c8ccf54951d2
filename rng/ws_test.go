package rng

import (
	"net/http/httptest"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamHandlerServesValuesPerFrame(t *testing.T) {
	t.Parallel()
	engine, _ := healthyEngine("europe")

	srv := httptest.NewServer(StreamHandler(engine, nil))
	defer srv.Close()

	c, _, err := websocket.Dial(t.Context(), srv.URL, nil)
	require.NoError(t, err)
	defer c.CloseNow()

	for range 3 {
		require.NoError(t, c.Write(t.Context(), websocket.MessageText, []byte("next")))

		var body map[string]float64
		require.NoError(t, wsjson.Read(t.Context(), c, &body))
		v, ok := body["random"]
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}

	c.Close(websocket.StatusNormalClosure, "")
}
