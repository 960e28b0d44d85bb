package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nyiyui.ca/hato/stationmaster/journal"
)

var dbPath string
var session string
var mode string
var n int
var seq int

func main() {
	flag.StringVar(&dbPath, "db-path", "./yard.journal.db", "path to journal")
	flag.StringVar(&session, "session", "", "session ID to restrict to")
	flag.StringVar(&mode, "mode", "recent", "recent, all or get")
	flag.IntVar(&n, "n", 20, "number of entries for recent")
	flag.IntVar(&seq, "seq", 0, "sequence number for get")
	flag.Parse()
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	dev, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(dev)
	defer zap.S().Sync()

	if mode != "recent" && mode != "all" && mode != "get" {
		zap.S().Fatal("mode must be recent, all or get")
	}

	if session != "" {
		_, err := uuid.Parse(session)
		if err != nil {
			zap.S().Warnf("session %s is not a valid UUID: %s", session, err)
		}
	}

	err = main2()
	if err != nil {
		zap.S().Fatal(err)
	}
}

func main2() error {
	j, err := journal.Open(dbPath)
	if err != nil {
		return err
	}
	defer j.Close()
	enc := json.NewEncoder(os.Stdout)
	switch mode {
	case "recent":
		entries, err := j.Recent(n)
		if err != nil {
			return err
		}
		for _, e := range entries {
			err = enc.Encode(e)
			if err != nil {
				return err
			}
		}
		zap.S().Infof("%d entries", len(entries))
		return nil
	case "all":
		count := 0
		var encErr error
		err = j.Each(session, func(e journal.Entry) bool {
			encErr = enc.Encode(e)
			if encErr != nil {
				return false
			}
			count++
			return true
		})
		zap.S().Infof("%d entries", count)
		if err != nil {
			return err
		}
		return encErr
	case "get":
		id, err := uuid.Parse(session)
		if err != nil {
			return err
		}
		e, err := j.Get(id, seq)
		if err != nil {
			return err
		}
		return enc.Encode(e)
	default:
		panic("not implemented yet")
	}
}
