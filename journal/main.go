// Package journal keeps a buntdb log of every timetable move the yard makes.
package journal

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/buntdb"
	"go.uber.org/zap"
	"nyiyui.ca/hato/stationmaster/yard"
)

const indexAt = "at"

// Entry is one recorded move.
type Entry struct {
	Session uuid.UUID `json:"session"`
	Seq     int       `json:"seq"`
	Time    time.Time `json:"time"`
	// At is Time in Unix milliseconds, used for ordering across sessions.
	At int64 `json:"at"`
	yard.MoveReport
}

func (e Entry) Key() string { return key(e.Session, e.Seq) }

func key(session uuid.UUID, seq int) string {
	return fmt.Sprintf("move:%s:%08d", session, seq)
}

// Journal appends entries under a session ID chosen at Open.
type Journal struct {
	db      *buntdb.DB
	session uuid.UUID
	seqLock sync.Mutex
	seq     int
	now     func() time.Time
}

// Open opens (or creates) the journal at path. ":memory:" keeps it in memory.
func Open(path string) (*Journal, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal %s: %w", path, err)
	}
	err = db.CreateIndex(indexAt, "move:*", buntdb.IndexJSON("at"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("journal %s: index: %w", path, err)
	}
	j := &Journal{
		db:      db,
		session: uuid.New(),
		now:     time.Now,
	}
	zap.S().Infow("journal opened", "path", path, "session", j.session)
	return j, nil
}

func (j *Journal) Session() uuid.UUID { return j.session }

// Record stores r as the next entry of this session.
func (j *Journal) Record(r yard.MoveReport) (Entry, error) {
	j.seqLock.Lock()
	defer j.seqLock.Unlock()
	now := j.now()
	e := Entry{
		Session:    j.session,
		Seq:        j.seq,
		Time:       now,
		At:         now.UnixMilli(),
		MoveReport: r,
	}
	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, err
	}
	err = j.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(e.Key(), string(data), nil)
		return err
	})
	if err != nil {
		return Entry{}, fmt.Errorf("journal: %w", err)
	}
	j.seq++
	return e, nil
}

func decode(key, value string) (Entry, bool) {
	var e Entry
	err := json.Unmarshal([]byte(value), &e)
	if err != nil {
		zap.S().Errorw("unmarshalling failed",
			"key", key,
			"value", value)
		return Entry{}, false
	}
	return e, true
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(n int) ([]Entry, error) {
	res := []Entry{}
	if n <= 0 {
		return res, nil
	}
	err := j.db.View(func(tx *buntdb.Tx) error {
		return tx.Descend(indexAt, func(key, value string) bool {
			if e, ok := decode(key, value); ok {
				res = append(res, e)
			}
			return len(res) < n
		})
	})
	return res, err
}

// Each calls fn for every entry, oldest first, until fn returns false.
// A non-empty session restricts it to that session's entries.
func (j *Journal) Each(session string, fn func(Entry) bool) error {
	prefix := "move:"
	if session != "" {
		prefix = fmt.Sprintf("move:%s:", session)
	}
	return j.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(indexAt, func(key, value string) bool {
			if !strings.HasPrefix(key, prefix) {
				return true
			}
			e, ok := decode(key, value)
			if !ok {
				return true
			}
			return fn(e)
		})
	})
}

// Get returns a single entry.
func (j *Journal) Get(session uuid.UUID, seq int) (Entry, error) {
	var e Entry
	err := j.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(key(session, seq))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(value), &e)
	})
	return e, err
}

func (j *Journal) Close() error {
	return j.db.Close()
}
