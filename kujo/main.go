// Package kujo streams yard snapshots to external renderers over server-sent events.
package kujo

import (
	"encoding/json"
	"net/http"

	"github.com/r3labs/sse/v2"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"nyiyui.ca/hato/stationmaster/notify"
	"nyiyui.ca/hato/stationmaster/yard"
)

const streamSnapshot = "snapshot"

type Server struct {
	snapshots *notify.Multiplexer[yard.Snapshot]
	ch        chan yard.Snapshot
	s         *sse.Server
	handler   http.Handler
}

// NewServer serves
//
//	/events?stream=snapshot  every snapshot sent on snapshots, as JSON
//	/snapshot                the latest snapshot
func NewServer(snapshots *notify.Multiplexer[yard.Snapshot]) *Server {
	s := &Server{
		snapshots: snapshots,
		ch:        make(chan yard.Snapshot, 1),
		s:         sse.New(),
	}
	s.s.AutoReplay = false
	s.s.CreateStream(streamSnapshot)
	mux := http.NewServeMux()
	mux.Handle("/events", s.s)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	}).Handler(mux)
	snapshots.Subscribe("kujo", s.ch)
	go s.forward()
	return s
}

func (s *Server) forward() {
	for ys := range s.ch {
		s.publish(ys)
	}
}

func (s *Server) publish(ys yard.Snapshot) {
	data, err := json.Marshal(ys)
	if err != nil {
		zap.S().Errorf("kujo: marshal json: %s", err)
		return
	}
	s.s.TryPublish(streamSnapshot, &sse.Event{
		Data: data,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ys, ok := s.snapshots.Latest()
	if !ok {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(ys)
	if err != nil {
		zap.S().Errorf("kujo: write snapshot: %s", err)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops forwarding snapshots and ends every event stream.
func (s *Server) Close() {
	s.snapshots.Unsubscribe(s.ch)
	close(s.ch)
	s.s.Close()
}
