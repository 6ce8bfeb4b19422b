// Package database stores the history of jssift runs in SQLite.
//
// Every saved run keeps its target, timing, per-script outcome and the
// accepted strings of each script, so that two runs against the same
// target can be compared: which scripts appeared or disappeared and which
// strings were added or removed.
//
// SQLite is used through modernc.org/sqlite, a pure Go driver, so the
// binary stays CGO-free. The database lives in the XDG data directory.
package database
