package mediation

import "fmt"

// Code describes one native error code of a network
type Code struct {
	Name   string
	NoFill bool
}

// Classifier maps a network's native error codes onto the no-fill / generic
// failure split. Only codes explicitly marked NoFill classify as no-fill.
type Classifier[C comparable] struct {
	network string
	table   map[C]Code
}

// NewClassifier creates a classifier over a fixed code table
func NewClassifier[C comparable](network string, table map[C]Code) *Classifier[C] {
	return &Classifier[C]{network: network, table: table}
}

// Classify returns whether code means no fill, with a human-readable message.
func (c *Classifier[C]) Classify(code C) (bool, string) {
	entry, ok := c.table[code]
	if !ok {
		return false, fmt.Sprintf("%s error %v (UNKNOWN)", c.network, code)
	}
	return entry.NoFill, fmt.Sprintf("%s error %v (%s)", c.network, code, entry.Name)
}

// NoFillCodes lists the codes classified as no-fill
func (c *Classifier[C]) NoFillCodes() []C {
	codes := make([]C, 0)
	for code, entry := range c.table {
		if entry.NoFill {
			codes = append(codes, code)
		}
	}
	return codes
}

// Codes lists every mapped code
func (c *Classifier[C]) Codes() []C {
	codes := make([]C, 0, len(c.table))
	for code := range c.table {
		codes = append(codes, code)
	}
	return codes
}
