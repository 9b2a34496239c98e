package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"bibleref/internal/logging"
)

// Record is one parsed line of the daemon's JSON log.
type Record struct {
	Time      string
	Level     string
	Message   string
	Component string
	EventType string
	TaskID    string
	Fields    map[string]any
}

// ParseRecord decodes a JSON log line. ok is false for lines that are not
// JSON objects.
func ParseRecord(line string) (Record, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, false
	}
	take := func(key string) string {
		value, ok := raw[key]
		if !ok {
			return ""
		}
		delete(raw, key)
		if s, ok := value.(string); ok {
			return s
		}
		return fmt.Sprint(value)
	}
	rec := Record{
		Time:      take("ts"),
		Level:     strings.ToLower(take("level")),
		Message:   take("msg"),
		Component: take(logging.FieldComponent),
		EventType: take(logging.FieldEventType),
		TaskID:    take(logging.FieldTaskID),
	}
	if len(raw) > 0 {
		rec.Fields = raw
	}
	return rec, true
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Filter selects log records. Empty fields match everything.
type Filter struct {
	MinLevel  string
	Component string
	EventType string
	TaskID    string
}

// Match reports whether rec passes the filter. TaskID matches by prefix so
// the short ids printed by `queue list` work.
func (f Filter) Match(rec Record) bool {
	if minLevel := strings.ToLower(strings.TrimSpace(f.MinLevel)); minLevel != "" {
		want, ok := levelRank[minLevel]
		if ok && levelRank[rec.Level] < want {
			return false
		}
	}
	if f.Component != "" && !strings.EqualFold(rec.Component, f.Component) {
		return false
	}
	if f.EventType != "" && rec.EventType != f.EventType {
		return false
	}
	if f.TaskID != "" && !strings.HasPrefix(rec.TaskID, f.TaskID) {
		return false
	}
	return true
}

// Empty reports whether the filter matches every record.
func (f Filter) Empty() bool {
	return strings.TrimSpace(f.MinLevel) == "" && f.Component == "" && f.EventType == "" && f.TaskID == ""
}

// Format renders rec as a single human-readable line.
func Format(rec Record) string {
	var b strings.Builder
	if rec.Time != "" {
		b.WriteString(rec.Time)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(rec.Level))
	if rec.Component != "" {
		b.WriteString("[" + rec.Component + "] ")
	}
	b.WriteString(rec.Message)
	if rec.EventType != "" {
		b.WriteString(" event=" + rec.EventType)
	}
	if rec.TaskID != "" {
		b.WriteString(" task=" + rec.TaskID)
	}
	keys := make([]string, 0, len(rec.Fields))
	for key := range rec.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, rec.Fields[key])
	}
	return b.String()
}
