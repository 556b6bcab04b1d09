package timeplus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/services"
)

// MockClient is a mock implementation of the TimeplusClient interface
type MockClient struct {
	mock.Mock

	mu   sync.Mutex
	rows map[string][][]interface{}
}

// Ensure MockClient implements TimeplusClient
var _ TimeplusClient = (*MockClient)(nil)

func (m *MockClient) StreamExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockClient) CreateStream(ctx context.Context, name string, schema []Column) error {
	args := m.Called(ctx, name, schema)
	return args.Error(0)
}

func (m *MockClient) InsertRows(ctx context.Context, stream string, columns []string, rows [][]interface{}) error {
	args := m.Called(ctx, stream, columns, rows)
	if args.Error(0) == nil {
		m.mu.Lock()
		if m.rows == nil {
			m.rows = make(map[string][][]interface{})
		}
		m.rows[stream] = append(m.rows[stream], rows...)
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *MockClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockClient) written(stream string) [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[stream]
}

var at = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

func TestCreateStreamQuery(t *testing.T) {
	query := CreateStreamQuery("aegis_logs", []Column{
		{Name: "id", Type: "string"},
		{Name: "anomaly", Type: "bool", Nullable: true},
	})
	assert.Equal(t, "CREATE STREAM IF NOT EXISTS `aegis_logs` (`id` string, `anomaly` bool NULL)", query)
}

func TestTables(t *testing.T) {
	tables := Tables("aegis-")
	require.Len(t, tables, 6)
	assert.Equal(t, "aegis_events", tables[0].Name)
	assert.Equal(t, "aegis_connections", tables[5].Name)
	assert.Equal(t, []string{"view", "kind", "record_id", "len", "evicted", "payload", "at"}, tables[0].ColumnNames())

	// Every typed row must line up with its schema
	records := []interface{}{
		models.Alert{ID: "A001"},
		models.Threat{ID: "T001"},
		models.PacketRecord{ID: "1", Flags: []string{"SYN", "ACK"}},
		models.LogEntry{ID: "1"},
		models.NetworkConnection{ID: "1"},
	}
	schemas := Schemas()
	for _, rec := range records {
		suffix, row := recordRow(rec)
		require.NotEmpty(t, suffix)
		assert.Len(t, row, len(schemas[suffix]), suffix)
	}

	suffix, row := recordRow(models.NetworkStats{})
	assert.Empty(t, suffix)
	assert.Nil(t, row)
}

func TestSetupStreams(t *testing.T) {
	client := new(MockClient)
	ctx := context.Background()

	for _, table := range Tables("aegis_") {
		exists := table.Name == "aegis_events"
		client.On("StreamExists", ctx, table.Name).Return(exists, nil)
		if !exists {
			client.On("CreateStream", ctx, table.Name, table.Columns).Return(nil)
		}
	}

	require.NoError(t, SetupStreams(ctx, client, "aegis_"))
	client.AssertExpectations(t)
	client.AssertNotCalled(t, "CreateStream", ctx, "aegis_events", mock.Anything)
}

func TestSetupStreamsError(t *testing.T) {
	client := new(MockClient)
	client.On("StreamExists", mock.Anything, "aegis_events").Return(false, errors.New("connection refused"))

	err := SetupStreams(context.Background(), client, "aegis_")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSinkFlushesOnShutdown(t *testing.T) {
	client := new(MockClient)
	client.On("InsertRows", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	sink := NewSink(client, "aegis_", 16)
	sink.flushInterval = time.Hour

	alert := models.Alert{ID: "A006", Title: "Port Scan Detected", Severity: models.SeverityHigh, Status: models.AlertStatusNew, Timestamp: at}
	sink.Publish(services.Event{View: services.ViewAlerts, Kind: services.EventInsert, RecordID: alert.ID, Record: alert, Len: 6, At: at})
	sink.Publish(services.Event{View: services.ViewNetwork, Kind: services.EventStats, Record: models.NetworkStats{}, Len: 4, At: at})
	sink.Publish(services.Event{View: services.ViewAlerts, Kind: services.EventDelete, RecordID: "A001", Len: 5, At: at})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sink.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sink did not stop")
	}

	events := client.written("aegis_events")
	require.Len(t, events, 3)
	assert.Equal(t, "alerts", events[0][0])
	assert.Equal(t, "insert", events[0][1])
	assert.Equal(t, "A006", events[0][2])
	assert.Equal(t, int32(6), events[0][3])
	assert.Contains(t, events[0][5], `"title":"Port Scan Detected"`)
	assert.Equal(t, "delete", events[2][1])
	assert.Equal(t, "", events[2][5])

	alerts := client.written("aegis_alerts")
	require.Len(t, alerts, 1)
	assert.Equal(t, "A006", alerts[0][0])
	assert.Equal(t, "high", alerts[0][3])
	assert.Empty(t, client.written("aegis_connections"))
	assert.Equal(t, int64(3), sink.Written())
}

func TestSinkFlushesOnTicker(t *testing.T) {
	client := new(MockClient)
	client.On("InsertRows", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	sink := NewSink(client, "aegis_", 16)
	sink.flushInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sink.Run(ctx)

	entry := models.LogEntry{ID: "6", Level: models.LogLevelError, Message: "Disk failure", Timestamp: at}
	sink.Publish(services.Event{View: services.ViewLogs, Kind: services.EventInsert, RecordID: entry.ID, Record: entry, Len: 6, At: at})

	assert.Eventually(t, func() bool {
		return len(client.written("aegis_logs")) == 1
	}, time.Second, time.Millisecond)
}

func TestSinkDropsWhenFull(t *testing.T) {
	sink := NewSink(new(MockClient), "aegis_", 1)
	sink.Publish(services.Event{View: services.ViewLogs, Kind: services.EventInsert})
	sink.Publish(services.Event{View: services.ViewLogs, Kind: services.EventInsert})
	sink.Publish(services.Event{View: services.ViewLogs, Kind: services.EventInsert})
	assert.Equal(t, int64(2), sink.Dropped())
}

func TestSinkKeepsGoingAfterInsertError(t *testing.T) {
	client := new(MockClient)
	client.On("InsertRows", mock.Anything, "aegis_events", mock.Anything, mock.Anything).Return(errors.New("stream missing"))
	client.On("InsertRows", mock.Anything, "aegis_threats", mock.Anything, mock.Anything).Return(nil)

	sink := NewSink(client, "aegis_", 4)
	threat := models.Threat{ID: "T006", Confidence: 91, Timestamp: at}
	sink.flush(context.Background(), []services.Event{
		{View: services.ViewThreats, Kind: services.EventScan, RecordID: threat.ID, Record: threat, At: at},
	})

	threats := client.written("aegis_threats")
	require.Len(t, threats, 1)
	assert.Equal(t, int32(91), threats[0][6])
	assert.Equal(t, int64(0), sink.Written())
}

func TestClientString(t *testing.T) {
	c := &Client{address: "localhost:8464", workspace: "default"}
	assert.Equal(t, "Timeplus localhost:8464/default", c.String())
}
