package stream

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testClient() *Client {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return NewClient("c1", nil, nil, l)
}

func TestWantsSportEmptyFilterMatchesAll(t *testing.T) {
	c := testClient()

	assert.True(t, c.WantsSport("NFL"))
	assert.True(t, c.WantsSport("NBA"))
}

func TestSubscribeFiltersSports(t *testing.T) {
	c := testClient()

	c.handleMessage(clientMessage{Action: "subscribe", Sport: "nfl"})
	assert.True(t, c.WantsSport("NFL"))
	assert.False(t, c.WantsSport("NBA"))

	c.handleMessage(clientMessage{Action: "subscribe", Sport: "NBA"})
	assert.True(t, c.WantsSport("NBA"))

	c.handleMessage(clientMessage{Action: "unsubscribe", Sport: "NFL"})
	assert.False(t, c.WantsSport("NFL"))
	assert.True(t, c.WantsSport("NBA"))
}

func TestSubscribeIgnoresEmptySport(t *testing.T) {
	c := testClient()

	c.handleMessage(clientMessage{Action: "subscribe", Sport: "  "})
	assert.True(t, c.WantsSport("NFL"), "empty subscribe must not narrow the filter")
}

func TestTrySendDropsWhenFull(t *testing.T) {
	c := testClient()

	msg := ServerMessage{Type: "board_update", Timestamp: time.Now()}
	for i := 0; i < sendBufferSize; i++ {
		assert.True(t, c.trySend(msg))
	}
	assert.False(t, c.trySend(msg))
}
