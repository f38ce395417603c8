//
// label.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"encoding/binary"
	"fmt"
	"io"
)

// LabelSize specifies the label size in bytes.
const LabelSize = 16

// Wire implements a wire with 0 and 1 labels.
type Wire struct {
	L0 Label
	L1 Label
}

func (w Wire) String() string {
	return fmt.Sprintf("%s/%s", w.L0, w.L1)
}

// NewWire creates a wire with two fresh random labels. The labels
// are guaranteed to differ.
func NewWire(rand io.Reader) (Wire, error) {
	var w Wire
	var err error

	w.L0, err = NewLabel(rand)
	if err != nil {
		return w, err
	}
	for {
		w.L1, err = NewLabel(rand)
		if err != nil {
			return w, err
		}
		if !w.L1.Equal(w.L0) {
			return w, nil
		}
	}
}

// Label returns the label standing for the argument bit value.
func (w Wire) Label(bit bool) Label {
	if bit {
		return w.L1
	}
	return w.L0
}

// Bit resolves the label back to its bit value.
func (w Wire) Bit(label Label) (bool, error) {
	switch {
	case label.Equal(w.L0):
		return false, nil
	case label.Equal(w.L1):
		return true, nil
	default:
		return false, fmt.Errorf("unknown label %s for wire %v", label, w)
	}
}

// Label implements a 128 bit wire label.
type Label struct {
	D0 uint64
	D1 uint64
}

func (l Label) String() string {
	return fmt.Sprintf("%016x%016x", l.D0, l.D1)
}

// Equal test if the labels are equal.
func (l Label) Equal(o Label) bool {
	return l.D0 == o.D0 && l.D1 == o.D1
}

// NewLabel creates a new random label.
func NewLabel(rand io.Reader) (Label, error) {
	var buf [LabelSize]byte
	var label Label

	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return label, err
	}
	label.D0 = binary.BigEndian.Uint64(buf[0:8])
	label.D1 = binary.BigEndian.Uint64(buf[8:16])
	return label, nil
}

// LabelFromBytes creates a label from its byte encoding.
func LabelFromBytes(data []byte) (Label, error) {
	var label Label
	if len(data) != LabelSize {
		return label, fmt.Errorf("invalid label length %d", len(data))
	}
	label.D0 = binary.BigEndian.Uint64(data[0:8])
	label.D1 = binary.BigEndian.Uint64(data[8:16])
	return label, nil
}

// Bytes returns the label data as bytes.
func (l Label) Bytes() []byte {
	buf := make([]byte, LabelSize)
	binary.BigEndian.PutUint64(buf[0:8], l.D0)
	binary.BigEndian.PutUint64(buf[8:16], l.D1)
	return buf
}
