package timeplus

import (
	"context"
)

// TimeplusClient defines the interface for a Timeplus client
// This allows us to mock the client for testing
type TimeplusClient interface {
	StreamExists(ctx context.Context, name string) (bool, error)
	CreateStream(ctx context.Context, name string, schema []Column) error
	InsertRows(ctx context.Context, stream string, columns []string, rows [][]interface{}) error
	Close() error
}

// Ensure Client implements TimeplusClient
var _ TimeplusClient = (*Client)(nil)
