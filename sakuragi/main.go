// Package sakuragi serves an HTML board of the yard.
package sakuragi

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/Masterminds/sprig/v3"
	"go.uber.org/zap"
	"nyiyui.ca/hato/stationmaster/journal"
	"nyiyui.ca/hato/stationmaster/notify"
	"nyiyui.ca/hato/stationmaster/yard"
)

//go:embed index.html
var templates embed.FS

const defaultRecentMoves = 10

type Conf struct {
	Snapshots *notify.Multiplexer[yard.Snapshot]
	// Journal is optional; without it no recent moves are shown.
	Journal     *journal.Journal
	RecentMoves int
}

type Server struct {
	conf Conf
	sm   *http.ServeMux
	t    *template.Template
}

func New(conf Conf) *Server {
	if conf.RecentMoves <= 0 {
		conf.RecentMoves = defaultRecentMoves
	}
	s := &Server{
		conf: conf,
		sm:   http.NewServeMux(),
	}
	s.t = template.Must(template.New("index").Funcs(sprig.FuncMap()).ParseFS(templates, "*.html"))
	s.sm.HandleFunc("/", s.handleIndex)
	return s
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	var ys *yard.Snapshot
	if latest, ok := s.conf.Snapshots.Latest(); ok {
		ys = &latest
	}
	var entries []journal.Entry
	if s.conf.Journal != nil {
		var err error
		entries, err = s.conf.Journal.Recent(s.conf.RecentMoves)
		if err != nil {
			zap.S().Errorw("sakuragi: recent moves", "err", err)
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.t.ExecuteTemplate(w, "index", map[string]interface{}{
		"ys":      ys,
		"entries": entries,
		"now":     time.Now().Format("15:04:05"),
	})
	if err != nil {
		zap.S().Errorw("sakuragi: render", "err", err)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.sm.ServeHTTP(w, r)
}
