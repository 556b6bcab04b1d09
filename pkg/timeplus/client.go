package timeplus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/timeplus-io/proton-go-driver/v2"
	"github.com/timeplus-io/proton-go-driver/v2/lib/driver"

	"github.com/aegisvault/aegis-monitor/pkg/config"
)

// Column represents a column definition
type Column struct {
	Name     string
	Type     string
	Nullable bool // Whether the column can be NULL
}

// Client is a wrapper around the Timeplus Proton Go driver connection
type Client struct {
	conn      driver.Conn
	workspace string
	address   string
}

// pingAttempts bounds how long NewClient waits for Timeplus to come up
const pingAttempts = 5

// NewClient creates a new Timeplus client
func NewClient(cfg *config.TimeplusConfig) (*Client, error) {
	logrus.Infof("Connecting to Timeplus at %s (workspace: %s)", cfg.Address, cfg.Workspace)

	// Strip protocol if present, Timeplus is reached over its native port
	address := cfg.Address
	address = strings.TrimPrefix(address, "http://")
	address = strings.TrimPrefix(address, "https://")

	host := address
	port := "8464" // Default native port
	if strings.Contains(address, ":") {
		parts := strings.Split(address, ":")
		host = parts[0]
		port = parts[1]
	}
	connectionAddr := host + ":" + port

	opts := &proton.Options{
		Addr: []string{connectionAddr},
		Auth: proton.Auth{
			Database: cfg.Workspace,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		Compression: &proton.Compression{
			Method: proton.CompressionLZ4,
		},
	}

	conn, err := proton.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection to Timeplus: %w", err)
	}

	// Test connection with retries
	var pingErr error
	for i := 0; i < pingAttempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = conn.Ping(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		logrus.Warnf("Failed to ping Timeplus (attempt %d/%d): %v", i+1, pingAttempts, pingErr)
		time.Sleep(2 * time.Second)
	}
	if pingErr != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping Timeplus after multiple attempts: %w", pingErr)
	}

	client := &Client{
		conn:      conn,
		workspace: cfg.Workspace,
		address:   connectionAddr,
	}
	logrus.Infof("Successfully connected to %s", client)
	return client, nil
}

// String identifies the connection in logs
func (c *Client) String() string {
	return fmt.Sprintf("Timeplus %s/%s", c.address, c.workspace)
}

// CreateStream creates a new stream with the given name and schema
func (c *Client) CreateStream(ctx context.Context, name string, schema []Column) error {
	query := CreateStreamQuery(name, schema)
	if err := c.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create stream '%s': %w", name, err)
	}
	return nil
}

// StreamExists checks whether a stream with the given name exists
func (c *Client) StreamExists(ctx context.Context, name string) (bool, error) {
	escapedName := strings.ReplaceAll(name, "'", "''")
	query := fmt.Sprintf("SHOW STREAMS LIKE '%s'", escapedName)
	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to execute SHOW STREAMS: %w", err)
	}
	defer rows.Close()

	// If the query returns any rows, the stream exists
	exists := rows.Next()
	if rows.Err() != nil {
		return false, fmt.Errorf("error checking rows from SHOW STREAMS: %w", rows.Err())
	}
	return exists, nil
}

// InsertRows appends rows to a stream in a single batch
func (c *Client) InsertRows(ctx context.Context, stream string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	query := fmt.Sprintf("INSERT INTO `%s` (%s)", stream, strings.Join(columns, ", "))
	batch, err := c.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare batch for %s: %w", stream, err)
	}

	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append row to %s: %w", stream, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch to %s: %w", stream, err)
	}
	return nil
}

// Close closes the underlying connection
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// SanitizeName makes a name usable as a stream name
func SanitizeName(name string) string {
	sanitized := strings.ReplaceAll(name, " ", "_")
	sanitized = strings.ReplaceAll(sanitized, "-", "_")
	return sanitized
}
