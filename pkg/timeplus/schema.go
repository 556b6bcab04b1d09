package timeplus

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/services"
)

// Stream name suffixes, appended to the configured prefix
const (
	EventsStream      = "events"
	AlertsStream      = "alerts"
	ThreatsStream     = "threats"
	PacketsStream     = "packets"
	LogsStream        = "logs"
	ConnectionsStream = "connections"
)

// Table is a stream definition
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the names of the table's columns in order
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Schemas returns the definition of every mirrored stream, keyed by suffix
func Schemas() map[string][]Column {
	return map[string][]Column{
		EventsStream: {
			{Name: "view", Type: "string"},
			{Name: "kind", Type: "string"},
			{Name: "record_id", Type: "string"},
			{Name: "len", Type: "int32"},
			{Name: "evicted", Type: "int32"},
			{Name: "payload", Type: "string"}, // JSON string of the record
			{Name: "at", Type: "datetime64(3)"},
		},
		AlertsStream: {
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "severity", Type: "string"},
			{Name: "status", Type: "string"},
			{Name: "source", Type: "string"},
			{Name: "category", Type: "string"},
			{Name: "timestamp", Type: "datetime64(3)"},
		},
		ThreatsStream: {
			{Name: "id", Type: "string"},
			{Name: "type", Type: "string"},
			{Name: "severity", Type: "string"},
			{Name: "source", Type: "string"},
			{Name: "target", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "confidence", Type: "int32"},
			{Name: "status", Type: "string"},
			{Name: "timestamp", Type: "datetime64(3)"},
		},
		PacketsStream: {
			{Name: "id", Type: "string"},
			{Name: "source", Type: "string"},
			{Name: "destination", Type: "string"},
			{Name: "protocol", Type: "string"},
			{Name: "length", Type: "int32"},
			{Name: "info", Type: "string"},
			{Name: "flags", Type: "string"},
			{Name: "timestamp", Type: "datetime64(3)"},
		},
		LogsStream: {
			{Name: "id", Type: "string"},
			{Name: "level", Type: "string"},
			{Name: "source", Type: "string"},
			{Name: "message", Type: "string"},
			{Name: "category", Type: "string"},
			{Name: "anomaly", Type: "bool"},
			{Name: "timestamp", Type: "datetime64(3)"},
		},
		ConnectionsStream: {
			{Name: "id", Type: "string"},
			{Name: "source", Type: "string"},
			{Name: "destination", Type: "string"},
			{Name: "protocol", Type: "string"},
			{Name: "port", Type: "int32"},
			{Name: "status", Type: "string"},
			{Name: "bytes", Type: "int64"},
			{Name: "packets", Type: "int64"},
			{Name: "duration", Type: "string"},
			{Name: "risk", Type: "string"},
		},
	}
}

// Tables returns every mirrored stream with prefix applied, events first
func Tables(prefix string) []Table {
	schemas := Schemas()
	order := []string{EventsStream, AlertsStream, ThreatsStream, PacketsStream, LogsStream, ConnectionsStream}
	tables := make([]Table, 0, len(order))
	for _, suffix := range order {
		tables = append(tables, Table{Name: SanitizeName(prefix + suffix), Columns: schemas[suffix]})
	}
	return tables
}

// CreateStreamQuery builds the CREATE STREAM statement for a schema
func CreateStreamQuery(name string, schema []Column) string {
	schemaStr := ""
	if len(schema) > 0 {
		schemaFields := make([]string, len(schema))
		for i, col := range schema {
			if col.Nullable {
				schemaFields[i] = fmt.Sprintf("`%s` %s NULL", col.Name, col.Type)
			} else {
				schemaFields[i] = fmt.Sprintf("`%s` %s", col.Name, col.Type)
			}
		}
		schemaStr = "(" + strings.Join(schemaFields, ", ") + ")"
	}
	return fmt.Sprintf("CREATE STREAM IF NOT EXISTS `%s` %s", name, schemaStr)
}

// eventRow flattens an event into a row of the events stream
func eventRow(evt services.Event) ([]interface{}, error) {
	payload := ""
	if evt.Record != nil {
		raw, err := json.Marshal(evt.Record)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s record: %w", evt.View, err)
		}
		payload = string(raw)
	}
	return []interface{}{
		evt.View,
		string(evt.Kind),
		evt.RecordID,
		int32(evt.Len),
		int32(evt.Evicted),
		payload,
		evt.At,
	}, nil
}

// recordRow flattens the record carried by an event into a row of its typed
// stream. It returns an empty suffix for records that are not mirrored.
func recordRow(rec interface{}) (string, []interface{}) {
	switch r := rec.(type) {
	case models.Alert:
		return AlertsStream, []interface{}{
			r.ID, r.Title, r.Description, string(r.Severity), string(r.Status), r.Source, r.Category, r.Timestamp,
		}
	case models.Threat:
		return ThreatsStream, []interface{}{
			r.ID, r.Type, string(r.Severity), r.Source, r.Target, r.Description, int32(r.Confidence), string(r.Status), r.Timestamp,
		}
	case models.PacketRecord:
		return PacketsStream, []interface{}{
			r.ID, r.Source, r.Destination, r.Protocol, int32(r.Length), r.Info, strings.Join(r.Flags, ","), r.Timestamp,
		}
	case models.LogEntry:
		return LogsStream, []interface{}{
			r.ID, string(r.Level), r.Source, r.Message, r.Category, r.Anomaly, r.Timestamp,
		}
	case models.NetworkConnection:
		return ConnectionsStream, []interface{}{
			r.ID, r.Source, r.Destination, r.Protocol, int32(r.Port), string(r.Status), r.Bytes, r.Packets, r.Duration, string(r.Risk),
		}
	default:
		return "", nil
	}
}
