// Package storage persists generated error reports so they can be
// downloaded later by filename alone.
package storage

import "io"

type ReportStore interface {
	Put(name string, content []byte) error
	Open(name string) (io.ReadCloser, error)
	Exists(name string) bool
}
