//
// garble.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/markkurossi/yao/ot"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var hkdfInfo = []byte("yao gate")

// Garbled contains the garbled circuit: the label pairs of all wires
// and the garbled tables of all gates. The tables are indexed by gate
// ID.
type Garbled struct {
	Wires  []ot.Wire
	Tables map[Wire][][]byte
}

// Label returns the label of the wire for the bit value.
func (g *Garbled) Label(w Wire, bit bool) ot.Label {
	return g.Wires[w].Label(bit)
}

// Garble garbles the circuit. Each wire gets a fresh pair of random
// labels and each gate gets a garbled table with one row per input
// combination. The table rows are shuffled so the row position does
// not reveal the input bits.
func (c *Circuit) Garble(rand io.Reader) (*Garbled, error) {
	garbled := &Garbled{
		Wires:  make([]ot.Wire, c.NumWires),
		Tables: make(map[Wire][][]byte),
	}
	for w := 0; w < c.NumWires; w++ {
		wire, err := ot.NewWire(rand)
		if err != nil {
			return nil, err
		}
		garbled.Wires[w] = wire
	}

	for _, gate := range c.Gates {
		table, err := garbled.garbleGate(rand, gate)
		if err != nil {
			return nil, err
		}
		garbled.Tables[gate.ID()] = table
	}
	return garbled, nil
}

func (g *Garbled) garbleGate(rand io.Reader, gate Gate) ([][]byte, error) {
	a := g.Wires[gate.Input0]
	out := g.Wires[gate.Output]

	var table [][]byte

	switch gate.Op {
	case XOR, XNOR, AND, OR:
		b := g.Wires[gate.Input1]
		for _, va := range []bool{false, true} {
			for _, vb := range []bool{false, true} {
				lb := b.Label(vb)
				row, err := encrypt(rand, gate.ID(), a.Label(va), &lb,
					out.Label(gate.Op.Eval(va, vb)))
				if err != nil {
					return nil, err
				}
				table = append(table, row)
			}
		}

	case INV:
		for _, va := range []bool{false, true} {
			row, err := encrypt(rand, gate.ID(), a.Label(va), nil,
				out.Label(!va))
			if err != nil {
				return nil, err
			}
			table = append(table, row)
		}

	default:
		return nil, fmt.Errorf("invalid gate type %s", gate.Op)
	}

	if err := shuffle(rand, table); err != nil {
		return nil, err
	}
	return table, nil
}

// shuffle permutes the rows with the Fisher-Yates shuffle.
func shuffle(r io.Reader, rows [][]byte) error {
	for i := len(rows) - 1; i > 0; i-- {
		j, err := rand.Int(r, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		k := int(j.Int64())
		rows[i], rows[k] = rows[k], rows[i]
	}
	return nil
}

// rowKey derives the encryption key for the label at the gate's
// encryption layer.
func rowKey(label ot.Label, gate Wire, layer byte) ([]byte, error) {
	var info [13]byte
	copy(info[:], hkdfInfo)
	binary.BigEndian.PutUint32(info[8:], uint32(gate))
	info[12] = layer

	key := make([]byte, chacha20poly1305.KeySize)
	_, err := io.ReadFull(hkdf.New(sha256.New, label.Bytes(), nil, info[:]),
		key)
	if err != nil {
		return nil, err
	}
	return key, nil
}

func gateAD(gate Wire) []byte {
	var ad [4]byte
	binary.BigEndian.PutUint32(ad[:], uint32(gate))
	return ad[:]
}

func seal(rand io.Reader, label ot.Label, gate Wire, layer byte,
	plaintext []byte) ([]byte, error) {

	key, err := rowKey(label, gate, layer)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(),
		aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, gateAD(gate)), nil
}

func open(label ot.Label, gate Wire, layer byte, data []byte) ([]byte,
	error) {

	key, err := rowKey(label, gate, layer)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(data) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("truncated row: %d bytes", len(data))
	}
	ns := aead.NonceSize()
	return aead.Open(nil, data[:ns], data[ns:], gateAD(gate))
}

// encrypt encrypts the output label c under the input labels a and
// b. The inner layer is keyed by b and the outer layer by a. The b
// is nil for single input gates.
func encrypt(rand io.Reader, gate Wire, a ot.Label, b *ot.Label,
	c ot.Label) ([]byte, error) {

	data := c.Bytes()
	var err error

	if b != nil {
		data, err = seal(rand, *b, gate, 1, data)
		if err != nil {
			return nil, err
		}
	}
	return seal(rand, a, gate, 0, data)
}

// Decrypt trial-decrypts the gate's garbled table with the input
// labels a and b. The b is nil for single input gates. Decrypt
// returns the output label of the only row that authenticates under
// the input labels, or ErrNoValidRow if no row does.
func Decrypt(gate Wire, table [][]byte, a ot.Label, b *ot.Label) (
	ot.Label, error) {

	for _, row := range table {
		data, err := open(a, gate, 0, row)
		if err != nil {
			continue
		}
		if b != nil {
			data, err = open(*b, gate, 1, data)
			if err != nil {
				continue
			}
		}
		label, err := ot.LabelFromBytes(data)
		if err != nil {
			continue
		}
		return label, nil
	}
	return ot.Label{}, fmt.Errorf("%w: gate %s", ErrNoValidRow, gate)
}

// Commitment computes the reveal commitment of the output wire's
// label.
func Commitment(w Wire, label ot.Label) []byte {
	h := sha256.New()
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(w))
	h.Write(buf[:])
	h.Write(label.Bytes())
	return h.Sum(nil)
}
