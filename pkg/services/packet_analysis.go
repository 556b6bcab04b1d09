package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aegisvault/aegis-monitor/pkg/feed"
	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/simulator"
)

// captureExtensions are the capture file types the inspector accepts
var captureExtensions = []string{".pcap", ".pcapng"}

// PacketFilter selects packets in the inspector
type PacketFilter struct {
	Protocol string `query:"protocol"`
	Query    string `query:"q"`
}

// PacketAnalysis manages the packet buffer and the capture toggle. The
// packet timer runs only while capturing.
type PacketAnalysis struct {
	lifecycle
	opts    Options
	feed    *feed.Feed[models.PacketRecord]
	source  *feed.Source[models.PacketRecord]
	capture *feed.Runner
}

// NewPacketAnalysis creates an unmounted inspector holding the seed packets, not capturing
func NewPacketAnalysis(opts Options) *PacketAnalysis {
	opts = opts.withDefaults()
	gen := simulator.NewGenerator(opts.Random)
	seed := simulator.SeedPackets()

	pa := &PacketAnalysis{
		opts: opts,
		feed: feed.New(opts.Packets.Capacity, func(p models.PacketRecord) string { return p.ID }, seed...),
	}
	pa.source = &feed.Source[models.PacketRecord]{
		Feed:        pa.feed,
		IDs:         opts.idSource("", 0, len(seed)),
		Generate:    gen.Packet,
		Probability: opts.Packets.Probability,
		Chance:      gen.Chance,
		OnInsert: func(p models.PacketRecord, evicted []models.PacketRecord) {
			pa.emit(EventInsert, p.ID, p, len(evicted))
		},
	}
	pa.capture = feed.NewRunner("packet capture", opts.Packets.Interval, func(now time.Time) {
		pa.source.Tick(now)
	})
	return pa
}

// Name returns the tab name of the view
func (pa *PacketAnalysis) Name() string { return ViewPackets }

// Mount activates the view. Capture stays off until StartCapture.
func (pa *PacketAnalysis) Mount(ctx context.Context) error {
	return pa.mount(ctx)
}

// Unmount stops any running capture
func (pa *PacketAnalysis) Unmount() {
	pa.unmount()
	pa.capture.Stop()
}

// StartCapture turns the packet timer on. Starting an active capture is a no-op.
func (pa *PacketAnalysis) StartCapture() error {
	ctx, ok := pa.context()
	if !ok {
		return fmt.Errorf("packet capture: %w", ErrViewNotMounted)
	}
	if pa.capture.Running() {
		return nil
	}
	if err := pa.capture.Start(ctx); err != nil && !errors.Is(err, feed.ErrRunnerStarted) {
		return err
	}
	logrus.Info("Packet capture started")
	pa.emit(EventStats, "", pa.Stats(), 0)
	return nil
}

// StopCapture turns the packet timer off. Stopping an idle capture is a no-op.
func (pa *PacketAnalysis) StopCapture() {
	if !pa.capture.Running() {
		return
	}
	pa.capture.Stop()
	logrus.Info("Packet capture stopped")
	pa.emit(EventStats, "", pa.Stats(), 0)
}

// Capturing reports whether the packet timer is running
func (pa *PacketAnalysis) Capturing() bool {
	return pa.capture.Running()
}

// Tick runs one capture step immediately, regardless of the toggle
func (pa *PacketAnalysis) Tick(now time.Time) (models.PacketRecord, bool) {
	return pa.source.Tick(now)
}

// List returns the packets matching the filter, newest first
func (pa *PacketAnalysis) List(f PacketFilter) []models.PacketRecord {
	return pa.feed.Filter(feed.All(
		feed.Equals(f.Protocol, func(p models.PacketRecord) string { return p.Protocol }),
		feed.Any(
			feed.ContainsExact(f.Query,
				func(p models.PacketRecord) string { return p.Source },
				func(p models.PacketRecord) string { return p.Destination },
			),
			feed.Contains(f.Query, func(p models.PacketRecord) string { return p.Info }),
		),
	))
}

// Get returns the packet shown in the detail pane
func (pa *PacketAnalysis) Get(id string) (models.PacketRecord, error) {
	p, ok := pa.feed.Get(id)
	if !ok {
		return models.PacketRecord{}, fmt.Errorf("packet %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// Stats computes the per-protocol counters
func (pa *PacketAnalysis) Stats() models.PacketStats {
	packets := pa.feed.Snapshot()
	return models.PacketStats{
		Total:      len(packets),
		ByProtocol: feed.CountBy(packets, func(p models.PacketRecord) string { return p.Protocol }),
		Capturing:  pa.capture.Running(),
	}
}

// Upload accepts a capture file. The content is read to count its size and
// discarded; it is never decoded. A nil reader is a no-op upload.
func (pa *PacketAnalysis) Upload(filename string, r io.Reader) (models.Upload, error) {
	if r == nil {
		return models.Upload{At: pa.opts.Now()}, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	accepted := false
	for _, e := range captureExtensions {
		if ext == e {
			accepted = true
		}
	}
	if !accepted {
		return models.Upload{}, fmt.Errorf("capture file %q (want .pcap or .pcapng): %w", filename, ErrInvalidValue)
	}

	size, err := io.Copy(io.Discard, r)
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to read capture file %s: %w", filename, err)
	}

	logrus.Infof("Received capture file %s (%d bytes)", filename, size)
	return models.Upload{Filename: filename, Size: size, At: pa.opts.Now()}, nil
}

// Export acknowledges an export of the filtered packets. Nothing is written.
func (pa *PacketAnalysis) Export(f PacketFilter) models.Ack {
	n := len(pa.List(f))
	logrus.Infof("Export requested for %d packets", n)
	return models.Ack{
		Action:  "export",
		Message: fmt.Sprintf("Exported %d packets", n),
		Count:   n,
		At:      pa.opts.Now(),
	}
}

func (pa *PacketAnalysis) emit(kind EventKind, id string, rec interface{}, evicted int) {
	publish(pa.opts.Sink, pa.opts.Now, Event{
		View:     ViewPackets,
		Kind:     kind,
		RecordID: id,
		Record:   rec,
		Len:      pa.feed.Len(),
		Evicted:  evicted,
	})
}
