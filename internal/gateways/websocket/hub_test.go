package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"openchat/internal/transcript"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(zap.NewNop(), transcript.TableMessages, transcript.TableReactions)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		hub.Run(ctx)
	}()

	r := gin.New()
	RegisterRoutes(r.Group("/api"), hub)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		cancel()
		<-stopped
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
}

func dial(t *testing.T, url string) *gorilla.Conn {
	t.Helper()
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *gorilla.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHubAcksThenStreamsSubscribedTables(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url+"?table="+transcript.TableMessages)

	ack := readFrame(t, conn)
	assert.Equal(t, FrameAck, ack.Type)
	assert.Equal(t, []string{transcript.TableMessages}, ack.Tables)
	assert.Equal(t, 1, hub.Connections())

	hub.Broadcast(transcript.Change{Table: transcript.TableReactions, Type: transcript.ChangeInsert})
	hub.Broadcast(transcript.Change{Table: transcript.TableMessages, Type: transcript.ChangeInsert, New: []byte(`{"id":"m1"}`)})
	hub.Broadcast(transcript.Change{Table: transcript.TableMessages, Type: transcript.ChangeDelete, Old: []byte(`{"id":"m1"}`)})

	first := readFrame(t, conn)
	require.Equal(t, FrameChange, first.Type)
	require.NotNil(t, first.Change)
	assert.Equal(t, transcript.ChangeInsert, first.Change.Type)
	assert.JSONEq(t, `{"id":"m1"}`, string(first.Change.New))

	second := readFrame(t, conn)
	assert.Equal(t, transcript.ChangeDelete, second.Change.Type)
}

func TestHubWithoutTablesFollowsEverything(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	assert.Equal(t, FrameAck, readFrame(t, conn).Type)

	hub.Broadcast(transcript.Change{Table: transcript.TableReactions, Type: transcript.ChangeUpdate})
	f := readFrame(t, conn)
	assert.Equal(t, transcript.TableReactions, f.Change.Table)
}

func TestHubRejectsUnknownTable(t *testing.T) {
	_, url := startHub(t)

	_, resp, err := gorilla.DefaultDialer.Dial(url+"?table=users", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	readFrame(t, conn)
	require.Equal(t, 1, hub.Connections())

	conn.Close()
	require.Eventually(t, func() bool { return hub.Connections() == 0 }, 2*time.Second, 5*time.Millisecond)
}
