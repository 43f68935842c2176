// Package telemetry provides the key/value sinks the autonomous run reports to
// once per loop iteration.
package telemetry

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Item is one telemetry entry. Lines have an empty Key.
type Item struct {
	Key   string
	Value string
}

func (i Item) String() string {
	if i.Key == "" {
		return i.Value
	}
	return fmt.Sprintf("%s: %s", i.Key, i.Value)
}

// Sink accepts telemetry items and publishes them on Update.
type Sink interface {
	AddData(key string, value any)
	AddLine(line string)
	Update() error
}

// Buffer collects items until Update hands them to a publish function.
type Buffer struct {
	mu      sync.Mutex
	items   []Item
	publish func([]Item) error
}

// NewBuffer creates a Buffer that calls publish with each frame.
func NewBuffer(publish func([]Item) error) *Buffer {
	return &Buffer{publish: publish}
}

// AddData adds a key/value item to the current frame.
func (b *Buffer) AddData(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, Item{Key: key, Value: format(value)})
}

// AddLine adds a free text line to the current frame.
func (b *Buffer) AddLine(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, Item{Value: line})
}

// Update publishes the current frame and starts a new one.
func (b *Buffer) Update() error {
	b.mu.Lock()
	items := b.items
	b.items = nil
	b.mu.Unlock()

	if len(items) == 0 || b.publish == nil {
		return nil
	}
	return b.publish(items)
}

func format(v any) string {
	switch v := v.(type) {
	case float64:
		return fmt.Sprintf("%.3f", v)
	case float32:
		return fmt.Sprintf("%.3f", v)
	default:
		return fmt.Sprint(v)
	}
}

// NewLineSink returns a sink that writes each frame to w, one item per line.
func NewLineSink(w io.Writer) *Buffer {
	return NewBuffer(func(items []Item) error {
		for _, it := range items {
			if _, err := fmt.Fprintln(w, it); err != nil {
				return err
			}
		}
		return nil
	})
}

// Discard is a sink that drops everything.
var Discard Sink = NewBuffer(nil)

type multi []Sink

// Multi returns a sink that forwards to every given sink.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) AddData(key string, value any) {
	for _, s := range m {
		s.AddData(key, value)
	}
}

func (m multi) AddLine(line string) {
	for _, s := range m {
		s.AddLine(line)
	}
}

func (m multi) Update() error {
	var errs []error
	for _, s := range m {
		if err := s.Update(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
