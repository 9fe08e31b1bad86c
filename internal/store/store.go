// Package store defines the cart persistence contract. Implementations live
// under internal/store/<driver>/ (e.g., redisstore).
package store

import (
	"context"
	"time"
)

// OpKind identifies a batch operation.
type OpKind string

const (
	OpWriteField  OpKind = "write_field"
	OpDeleteField OpKind = "delete_field"
	OpDeleteKey   OpKind = "delete_key"
	OpRefreshTTL  OpKind = "refresh_ttl"
)

// BatchOp is one operation inside a pipelined batch. Field and Value are used
// by field-level ops; TTL by refresh ops.
type BatchOp struct {
	Kind  OpKind
	Key   string
	Field string
	Value string
	TTL   time.Duration
}

// BatchResult reports the outcome of one batch operation.
type BatchResult struct {
	Op  BatchOp
	Err error
}

// Store exposes hash-per-key cart persistence. A batch groups multiple ops
// into one round trip but is not transactional: partial application is
// possible and is surfaced through per-op results.
type Store interface {
	// ReadAll returns every field of the cart hash, productID -> serialized item.
	ReadAll(ctx context.Context, key string) (map[string]string, error)
	// ReadField returns one field's serialized item; ok is false when the
	// field does not exist.
	ReadField(ctx context.Context, key, field string) (value string, ok bool, err error)
	WriteField(ctx context.Context, key, field, value string) error
	DeleteField(ctx context.Context, key, field string) error
	RefreshTTL(ctx context.Context, key string, ttl time.Duration) error
	DeleteKey(ctx context.Context, key string) error
	// ExecuteBatch pipelines ops in order. A non-nil error means the batch
	// could not be sent at all; otherwise per-op failures appear in results.
	ExecuteBatch(ctx context.Context, ops []BatchOp) ([]BatchResult, error)
}

// WriteFieldOp is a convenience constructor for a field write.
func WriteFieldOp(key, field, value string) BatchOp {
	return BatchOp{Kind: OpWriteField, Key: key, Field: field, Value: value}
}

// DeleteFieldOp is a convenience constructor for a field delete.
func DeleteFieldOp(key, field string) BatchOp {
	return BatchOp{Kind: OpDeleteField, Key: key, Field: field}
}

// DeleteKeyOp is a convenience constructor for a whole-key delete.
func DeleteKeyOp(key string) BatchOp {
	return BatchOp{Kind: OpDeleteKey, Key: key}
}

// RefreshTTLOp is a convenience constructor for a TTL refresh.
func RefreshTTLOp(key string, ttl time.Duration) BatchOp {
	return BatchOp{Kind: OpRefreshTTL, Key: key, TTL: ttl}
}
