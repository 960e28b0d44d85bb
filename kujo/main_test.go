package kujo

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nyiyui.ca/hato/stationmaster/notify"
	"nyiyui.ca/hato/stationmaster/stock"
	"nyiyui.ca/hato/stationmaster/timetable"
	"nyiyui.ca/hato/stationmaster/yard"
)

func snapshot(t *testing.T) yard.Snapshot {
	t.Helper()
	y, err := yard.New(yard.Conf{
		Catalog:   stock.NewCatalog([]stock.Type{{Name: "Box", Weight: 1}}),
		Sidings:   []yard.Siding{{Capacity: 2, Wagons: []stock.Wagon{stock.New(0)}}},
		Timetable: timetable.Timetable{{Kind: timetable.Neutral, Clock: "6:00", Meridiem: "am", Minute: 360}},
	})
	require.NoError(t, err)
	return y.Snapshot()
}

func TestSnapshotEndpoint(t *testing.T) {
	mux := notify.NewMultiplexer[yard.Snapshot]("test")
	s := NewServer(mux)
	defer s.Close()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest("GET", "/snapshot", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	mux.Send(snapshot(t))
	req := httptest.NewRequest("GET", "/snapshot", nil)
	req.Header.Set("Origin", "http://board.example")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, float64(360), got["target"])
	require.Equal(t, "6:00am", got["target-text"])
	require.Len(t, got["sidings"], 1)
}

func TestEventStream(t *testing.T) {
	mux := notify.NewMultiplexer[yard.Snapshot]("test")
	s := NewServer(mux)
	hs := httptest.NewServer(s)
	defer hs.Close()
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", hs.URL+"/events?stream=snapshot", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// keep sending until the subscription has registered
	ys := snapshot(t)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				mux.Send(ys)
			}
		}
	}()

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var got yard.Snapshot
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &got))
		require.Equal(t, ys.Target, got.Target)
		require.Equal(t, ys.Wagons, got.Wagons)
		return
	}
	t.Fatalf("stream ended: %v", sc.Err())
}
