package state

import "path/filepath"

type Paths struct {
	DB     string
	Store  string // pebble data
	State  string
	Traces string // operation span logs
	Logs   string
	Crash  string // crash dumps
}

func PathsFor(dbPath string) Paths {
	statePath := filepath.Join(dbPath, "state")
	return Paths{
		DB:    dbPath,
		Store: filepath.Join(dbPath, "store"),

		State:  statePath,
		Traces: filepath.Join(statePath, "traces"),
		Logs:   filepath.Join(statePath, "logs"),
		Crash:  filepath.Join(statePath, "crash"),
	}
}

func (p Paths) all() []string {
	return []string{p.Store, p.Traces, p.Logs, p.Crash}
}
