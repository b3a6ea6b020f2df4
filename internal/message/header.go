// Package message defines the immutable HTTP response model shared by the
// cookie codec and the response transmitter.
package message

import (
	"strings"
)

type field struct {
	name   string
	values []string
}

// Header is an ordered, case-insensitive multimap of header names to values.
// Names keep the casing of their first insertion and are iterated in
// insertion order; values keep the order in which they were added.
type Header struct {
	fields []field
}

// NewHeader builds a Header from name/value pairs. A trailing odd name is ignored.
func NewHeader(pairs ...string) Header {
	var h Header
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Add(pairs[i], pairs[i+1])
	}
	return h
}

func (h *Header) index(name string) int {
	for i, f := range h.fields {
		if strings.EqualFold(f.name, name) {
			return i
		}
	}
	return -1
}

// Add appends value to the values stored under name.
func (h *Header) Add(name, value string) {
	if i := h.index(name); i >= 0 {
		h.fields[i].values = append(h.fields[i].values, value)
		return
	}
	h.fields = append(h.fields, field{name: name, values: []string{value}})
}

// Set replaces every value stored under name with value. A replaced header
// keeps its position.
func (h *Header) Set(name, value string) {
	if i := h.index(name); i >= 0 {
		h.fields[i] = field{name: name, values: []string{value}}
		return
	}
	h.fields = append(h.fields, field{name: name, values: []string{value}})
}

// Del removes name and all of its values.
func (h *Header) Del(name string) {
	if i := h.index(name); i >= 0 {
		h.fields = append(h.fields[:i:i], h.fields[i+1:]...)
	}
}

// Get returns the first value stored under name, or "".
func (h Header) Get(name string) string {
	if i := h.index(name); i >= 0 {
		return h.fields[i].values[0]
	}
	return ""
}

// Values returns a copy of all values stored under name.
func (h Header) Values(name string) []string {
	if i := h.index(name); i >= 0 {
		return append([]string(nil), h.fields[i].values...)
	}
	return nil
}

// Line returns all values stored under name joined by ", ".
func (h Header) Line(name string) string {
	return strings.Join(h.Values(name), ", ")
}

// Has reports whether name is present.
func (h Header) Has(name string) bool {
	return h.index(name) >= 0
}

// Names returns header names in insertion order.
func (h Header) Names() []string {
	names := make([]string, len(h.fields))
	for i, f := range h.fields {
		names[i] = f.name
	}
	return names
}

// Len returns the number of distinct header names.
func (h Header) Len() int {
	return len(h.fields)
}

// Clone returns a deep copy of h.
func (h Header) Clone() Header {
	if h.fields == nil {
		return Header{}
	}
	fields := make([]field, len(h.fields))
	for i, f := range h.fields {
		fields[i] = field{name: f.name, values: append([]string(nil), f.values...)}
	}
	return Header{fields: fields}
}
