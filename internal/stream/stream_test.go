package stream

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/icco/genecg/internal/ecg"
	"github.com/icco/genecg/internal/session"
)

func TestStripEncoding(t *testing.T) {
	in := []float64{0, 1, -0.25, 1.5}
	got, err := DecodeStrip(EncodeStrip(in))
	if err != nil {
		t.Fatalf("DecodeStrip: %v", err)
	}
	for i, v := range in {
		if float64(got[i]) != v {
			t.Errorf("sample %d = %v, want %v", i, got[i], v)
		}
	}

	if _, err := DecodeStrip([]byte{1, 2, 3}); err == nil {
		t.Error("expected an error for a truncated payload")
	}
}

func TestHandleCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantHR  float64
		wantErr error
	}{
		{"object", `{"commands":[{"param":"heart_rate","value":88}]}`, 88, nil},
		{"array", `[{"param":"heart_rate","value":91},{"param":"st_offset","value":0.1}]`, 91, nil},
		{"empty", `{"commands":[]}`, 72, nil},
		{"unknown param", `[{"param":"heart_rate","value":91},{"param":"volume","value":3}]`, 72, ecg.ErrUnknownParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q ecg.CommandQueue
			err := HandleCommand([]byte(tt.payload), &q)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("HandleCommand err = %v, want %v", err, tt.wantErr)
			}
			p, _ := q.Drain(ecg.DefaultParameters())
			if p.HeartRate != tt.wantHR {
				t.Errorf("heart rate = %v, want %v", p.HeartRate, tt.wantHR)
			}
		})
	}

	var q ecg.CommandQueue
	if err := HandleCommand([]byte("not json"), &q); err == nil {
		t.Error("expected a decode error")
	}
}

func TestNewStatus(t *testing.T) {
	sess := session.New(session.Options{Params: ecg.DefaultParameters()})
	sess.Scheduler().Play(0)
	st := NewStatus(sess.Step(0.5), 42)
	if st.Ts != 42 || st.HR != 72 || !st.Playing {
		t.Errorf("status = %+v", st)
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", h.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(NewServer(":0", h).Handler)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, h, 1)

	payload := EncodeStrip([]float64{0.5, -0.5})
	h.Broadcast(websocket.BinaryMessage, payload)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if mt != websocket.BinaryMessage || string(data) != string(payload) {
		t.Errorf("got type %d payload %v", mt, data)
	}

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "messages 1") {
		t.Errorf("metrics = %q", body)
	}
}

func TestHubForwardsClientCommands(t *testing.T) {
	var q ecg.CommandQueue
	h := NewHub(nil)
	got := make(chan struct{}, 1)
	h.OnCommand = func(b []byte) error {
		defer func() { got <- struct{}{} }()
		return HandleCommand(b, &q)
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`[{"param":"heart_rate","value":140}]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("command never arrived")
	}
	if p, n := q.Drain(ecg.DefaultParameters()); n != 1 || p.HeartRate != 140 {
		t.Errorf("drained %d batches, heart rate %v", n, p.HeartRate)
	}
}
