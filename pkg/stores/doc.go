// Package stores provides the persistence layer for the browser
// finder's resolution audit trail. It includes SQLite-based storage
// with WAL mode, connection pooling, and embedded schema migrations
// for resolutions and discovery events.
package stores
