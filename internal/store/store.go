// internal/store/store.go
package store

import (
	"context"
	"errors"
)

// Collection names shared by every backend.
const (
	Users         = "users"
	Verifications = "verifications"
	TalentIDs     = "talent_ids"
	Orphans       = "orphans"
	SyncConfig    = "sync_config"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

type Document = map[string]interface{}

type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter is an equality predicate on a top-level field.
type Filter struct {
	Field string
	Value interface{}
}

type Order struct {
	Field     string
	Direction Direction
}

// Query mirrors what the managed backend supports: equality filters, one
// ordering and a limit. Documents missing the order field are not returned.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    *Order
	Limit      int
}

func (q Query) Where(field string, value interface{}) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

type Snapshot struct {
	ID   string
	Data Document
}

// DocumentStore is the document access contract the services are written
// against. Put overwrites (last write wins); Create fails with
// ErrAlreadyExists when the id is taken.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Put(ctx context.Context, collection, id string, doc Document) error
	Create(ctx context.Context, collection, id string, doc Document) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q Query) ([]Snapshot, error)
	Append(ctx context.Context, collection string, doc Document) (string, error)
	Close() error
}
