// Package store defines the user-data records mirrored from the managed
// database (chat topics and messages, saved widgets, anonymous visitors) and
// the repository interfaces that persist them. Implementations live in other
// packages; this package must not import database drivers or concrete clients.
package store
