package errors

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Diagnostic is a non-fatal problem recorded while building a site.
type Diagnostic struct {
	Page      string    `json:"page,omitempty"`
	File      string    `json:"file,omitempty"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Severity represents the severity of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name in reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// String formats the diagnostic as "file: severity: message".
func (d Diagnostic) String() string {
	location := d.File
	if location == "" {
		location = d.Page
	}
	if location == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", location, d.Severity, d.Message)
}

// Collector gathers diagnostics from concurrently processed pages.
type Collector struct {
	diagnostics []Diagnostic
	mutex       sync.RWMutex
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		diagnostics: make([]Diagnostic, 0),
	}
}

// Add records a diagnostic, stamping it with the current time.
func (c *Collector) Add(d Diagnostic) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	d.Timestamp = time.Now()
	c.diagnostics = append(c.diagnostics, d)
}

// Warn records a warning for file.
func (c *Collector) Warn(file, format string, args ...interface{}) {
	c.Add(Diagnostic{
		File:     file,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
	})
}

// Diagnostics returns a copy of every diagnostic, ordered by file then time.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mutex.RLock()
	result := make([]Diagnostic, len(c.diagnostics))
	copy(result, c.diagnostics)
	c.mutex.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].File < result[j].File
	})
	return result
}

// Count returns the number of diagnostics at or above severity.
func (c *Collector) Count(min Severity) int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	n := 0
	for _, d := range c.diagnostics {
		if d.Severity >= min {
			n++
		}
	}
	return n
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	return c.Count(SeverityError) > 0
}

// Clear drops every recorded diagnostic.
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.diagnostics = c.diagnostics[:0]
}
