// Package database stores the history of extraction runs in SQLite.
//
// Every run gets a row in the runs table when it starts and is completed
// when it finishes. Each processed link is stored in link_results with its
// status, failing stage, recovery strategy and page hash, so that later
// runs can tell whether a case page has changed. The database lives in a
// single file opened through the pure-Go modernc.org/sqlite driver.
package database
