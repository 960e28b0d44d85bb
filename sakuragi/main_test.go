package sakuragi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"nyiyui.ca/hato/stationmaster/journal"
	"nyiyui.ca/hato/stationmaster/notify"
	"nyiyui.ca/hato/stationmaster/stock"
	"nyiyui.ca/hato/stationmaster/timetable"
	"nyiyui.ca/hato/stationmaster/yard"
)

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestIndex(t *testing.T) {
	mux := notify.NewMultiplexer[yard.Snapshot]("test")
	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	defer j.Close()
	s := New(Conf{Snapshots: mux, Journal: j})

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "waiting for the yard")
	require.NotContains(t, rec.Body.String(), "Recent moves")

	c := stock.NewCatalog([]stock.Type{{Name: "Hopper", Weight: 1}})
	y, err := yard.New(yard.Conf{
		Catalog: c,
		Sidings: []yard.Siding{{Capacity: 3, Wagons: []stock.Wagon{stock.New(0)}}},
		Timetable: timetable.Timetable{
			{Kind: timetable.Neutral, Clock: "6:00", Meridiem: "am", Minute: 360, Description: "yard opens"},
			{Kind: timetable.Arrival, Clock: "6:40", Meridiem: "am", Minute: 400, Description: "pick-up goods"},
		},
		Rakes: [][]stock.Wagon{{stock.New(0), stock.New(0)}},
	})
	require.NoError(t, err)
	report, err := y.AdvanceMove()
	require.NoError(t, err)
	_, err = j.Record(report)
	require.NoError(t, err)
	mux.Send(y.Snapshot())

	rec = get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Hopper")
	require.Contains(t, body, "pick-up goods")
	require.Contains(t, body, "Recent moves")
	require.Contains(t, body, "move 2 of 2")
	require.NotContains(t, body, "waiting for the yard")
}

func TestNotFound(t *testing.T) {
	s := New(Conf{Snapshots: notify.NewMultiplexer[yard.Snapshot]("test")})
	require.Equal(t, http.StatusNotFound, get(t, s, "/favicon.ico").Code)
}
