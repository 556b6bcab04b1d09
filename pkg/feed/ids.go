package feed

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// ID strategies accepted by NewIDSource
const (
	IDStrategyUUID     = "uuid"
	IDStrategySequence = "sequence"
)

// IDSource hands out record identifiers that are unique within a feed
type IDSource interface {
	NextID() string
}

// UUIDSource generates random UUID based identifiers with an optional prefix
type UUIDSource struct {
	Prefix string
}

// NextID returns a new identifier
func (s UUIDSource) NextID() string {
	if s.Prefix == "" {
		return uuid.NewString()
	}
	return s.Prefix + "-" + uuid.NewString()
}

// SequenceSource generates monotonic identifiers such as A006, A007.
// It is safe for concurrent use.
type SequenceSource struct {
	prefix string
	width  int
	next   atomic.Int64
}

// NewSequenceSource returns a source whose first id is start
func NewSequenceSource(prefix string, width int, start int64) *SequenceSource {
	s := &SequenceSource{prefix: prefix, width: width}
	s.next.Store(start)
	return s
}

// NextID returns the next identifier in the sequence
func (s *SequenceSource) NextID() string {
	n := s.next.Add(1) - 1
	return fmt.Sprintf("%s%0*d", s.prefix, s.width, n)
}

// NewIDSource builds an IDSource for the named strategy. For the sequence
// strategy, start is the first number handed out.
func NewIDSource(strategy, prefix string, width int, start int64) (IDSource, error) {
	switch strings.ToLower(strategy) {
	case "", IDStrategyUUID:
		return UUIDSource{Prefix: prefix}, nil
	case IDStrategySequence:
		return NewSequenceSource(prefix, width, start), nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
