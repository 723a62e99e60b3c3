// Package debug is the in-game instrumentation subsystem: a bounded log
// ring, named flags and counters, and the Guard wrapper the frame scheduler
// runs each phase through.
//
// Every method is safe for concurrent use. Audio completions and websocket
// readers report here from their own goroutines.
package debug

import (
	"fmt"
	"log"
	"reflect"
	"sort"
	"sync"
	"time"

	"corridor/internal/metrics"

	"github.com/pkg/errors"
)

// MaxLogEntries bounds the log ring
const MaxLogEntries = 100

// Entry is one instrumentation log line
type Entry struct {
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Metrics collects logs, flags and counters for one engine.
type Metrics struct {
	mu         sync.RWMutex
	logs       []Entry
	errorCount int
	flags      map[string]interface{}
	counters   map[string]int

	// Echo writes error entries to the process log as well
	Echo bool

	now func() time.Time
}

// NewMetrics creates an empty collector
func NewMetrics() *Metrics {
	return &Metrics{
		logs:     make([]Entry, 0, MaxLogEntries),
		flags:    make(map[string]interface{}),
		counters: make(map[string]int),
		now:      time.Now,
	}
}

// Log appends an entry, evicting the oldest past MaxLogEntries.
func (m *Metrics) Log(message string, data map[string]interface{}) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(message, data)
}

func (m *Metrics) appendLocked(message string, data map[string]interface{}) Entry {
	entry := Entry{
		Message:   message,
		Data:      data,
		Timestamp: m.now(),
	}
	if len(m.logs) >= MaxLogEntries {
		copy(m.logs, m.logs[1:])
		m.logs = m.logs[:len(m.logs)-1]
	}
	m.logs = append(m.logs, entry)
	return entry
}

// RecordError counts err and logs it. Errors built with pkg/errors carry
// their stack trace in the entry data.
func (m *Metrics) RecordError(err error) Entry {
	if err == nil {
		err = errors.New("nil error recorded")
	}

	var data map[string]interface{}
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	var st stackTracer
	if errors.As(err, &st) {
		data = map[string]interface{}{"stack": fmt.Sprintf("%+v", st.StackTrace())}
	}

	m.mu.Lock()
	m.errorCount++
	entry := m.appendLocked("ERROR: "+err.Error(), data)
	m.mu.Unlock()

	metrics.IncDebugErrors()
	if m.Echo {
		log.Printf("❌ %v", err)
	}
	return entry
}

// ErrorCount returns the number of recorded errors
func (m *Metrics) ErrorCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errorCount
}

// SetFlag stores a named value and logs the transition when it changes.
func (m *Metrics) SetFlag(name string, value interface{}) {
	m.setFlag(name, value, true)
}

// SetFlagQuiet stores a named value without logging (per-frame telemetry).
func (m *Metrics) SetFlagQuiet(name string, value interface{}) {
	m.setFlag(name, value, false)
}

func (m *Metrics) setFlag(name string, value interface{}, logChange bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, existed := m.flags[name]
	m.flags[name] = value
	if logChange && (!existed || !reflect.DeepEqual(current, value)) {
		m.appendLocked(fmt.Sprintf("Flag %s set to %v", name, value), nil)
	}
}

// GetFlag returns the flag value, or nil when unset
func (m *Metrics) GetFlag(name string) interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[name]
}

// IncrementCounter adds amount and returns the new total.
func (m *Metrics) IncrementCounter(name string, amount int) int {
	m.mu.Lock()
	next := m.counters[name] + amount
	m.counters[name] = next
	m.appendLocked(fmt.Sprintf("Counter %s incremented to %d", name, next), nil)
	m.mu.Unlock()

	metrics.AddDebugCounter(name, amount)
	return next
}

// GetCounter returns the counter total, 0 when never incremented
func (m *Metrics) GetCounter(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[name]
}

// Logs returns a copy of the log ring, oldest first
func (m *Metrics) Logs() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.logs))
	copy(out, m.logs)
	return out
}

// Dump is a point-in-time copy of everything the collector holds
type Dump struct {
	ErrorCount int                    `json:"errorCount"`
	Flags      map[string]interface{} `json:"flags"`
	Counters   map[string]int         `json:"counters"`
	Logs       []Entry                `json:"logs"`
}

// Snapshot copies the collector state for the API
func (m *Metrics) Snapshot() Dump {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d := Dump{
		ErrorCount: m.errorCount,
		Flags:      make(map[string]interface{}, len(m.flags)),
		Counters:   make(map[string]int, len(m.counters)),
		Logs:       make([]Entry, len(m.logs)),
	}
	for k, v := range m.flags {
		d.Flags[k] = v
	}
	for k, v := range m.counters {
		d.Counters[k] = v
	}
	copy(d.Logs, m.logs)
	return d
}

// CounterNames returns counter names in sorted order
func (m *Metrics) CounterNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.counters))
	for k := range m.counters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
