package noop

import "github.com/taskhive/taskhive/pkg/domain"

// Collector implements MetricsCollector by discarding everything
// This is for testing purposes only
type Collector struct{}

// NewCollector creates a new no-op metrics collector
func NewCollector() *Collector { return &Collector{} }

func (*Collector) RecordTransition(domain.Status, string) {}
func (*Collector) RecordDenialReasons(int)                {}
func (*Collector) RecordBroadcast(string)                 {}
func (*Collector) RecordDroppedEvent(string)              {}
func (*Collector) SetConnectedClients(int)                {}
func (*Collector) SetChannelCount(int)                    {}
func (*Collector) SetQueueDepth(int)                      {}
