package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcockpit/internal/domain"
	"medcockpit/pkg/logging"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestHubBroadcastsStateEvents(t *testing.T) {
	t.Parallel()

	hub := NewHub(logging.New("error"))
	conn := dialHub(t, hub)

	hub.EncounterStateChanged(domain.EncounterStateActive, domain.EncounterReasonBriefingLoaded)

	event := readEvent(t, conn)
	assert.Equal(t, eventState, event.Name)
	assert.Equal(t, "active", event.Payload["state"])
	assert.Equal(t, "briefing_loaded", event.Payload["reason"])
	assert.Equal(t, "Encounter in progress", event.Payload["message"])
}

func TestHubBroadcastsErrorWithMessage(t *testing.T) {
	t.Parallel()

	hub := NewHub(logging.New("error"))
	conn := dialHub(t, hub)

	hub.SessionError(domain.ErrorCodeDevice, "mic busy")

	event := readEvent(t, conn)
	assert.Equal(t, eventError, event.Name)
	assert.Equal(t, "device", event.Payload["code"])
	assert.Equal(t, "Microphone unavailable", event.Payload["message"])
	assert.Equal(t, "mic busy", event.Payload["detail"])
}

func TestHubSurvivesDisconnectedClient(t *testing.T) {
	t.Parallel()

	hub := NewHub(logging.New("error"))
	conn := dialHub(t, hub)
	conn.Close()

	// Broadcasting after the peer is gone must not panic or wedge.
	hub.TranscriptAppended("line after disconnect")
	hub.VitalsSaved()
}
