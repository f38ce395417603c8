//
// rsa.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrDecrypt is returned when the receiver can't decrypt its
	// chosen message.
	ErrDecrypt = errors.New("ot: decryption failed")

	// ErrInvalidPublicKey is returned when the sender receives a
	// malformed public key.
	ErrInvalidPublicKey = errors.New("ot: invalid public key")

	oaepLabel = []byte("yao ot")
)

// Sender implements the 1-out-of-2 OT sender. The sender encrypts
// the wire's zero label with the first public key and the one label
// with the second public key. Only one of the keys has a private key
// known to the receiver.
type Sender struct {
	rand io.Reader
}

// NewSender creates a new OT sender.
func NewSender(rand io.Reader) *Sender {
	return &Sender{
		rand: rand,
	}
}

// Send encrypts the wire labels with the receiver's public keys.
func (s *Sender) Send(wire Wire, pubs [2][]byte) ([2][]byte, error) {
	var result [2][]byte

	for i, der := range pubs {
		pub, err := x509.ParsePKCS1PublicKey(der)
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		c, err := rsa.EncryptOAEP(sha256.New(), s.rand, pub,
			wire.Label(i == 1).Bytes(), oaepLabel)
		if err != nil {
			return result, err
		}
		result[i] = c
	}
	return result, nil
}

// Receiver implements the 1-out-of-2 OT receiver.
type Receiver struct {
	rand    io.Reader
	keyBits int
}

// NewReceiver creates a new OT receiver using keyBits sized RSA keys.
func NewReceiver(rand io.Reader, keyBits int) *Receiver {
	return &Receiver{
		rand:    rand,
		keyBits: keyBits,
	}
}

// NewTransfer creates a new transfer for the choice bit. It creates a
// genuine and a decoy key pair and orders their public keys so that
// the genuine key is at the position of the choice bit.
func (r *Receiver) NewTransfer(bit bool) (*ReceiverXfer, error) {
	key, err := rsa.GenerateKey(r.rand, r.keyBits)
	if err != nil {
		return nil, err
	}
	decoy, err := rsa.GenerateKey(r.rand, r.keyBits)
	if err != nil {
		return nil, err
	}
	genuine := x509.MarshalPKCS1PublicKey(&key.PublicKey)
	fake := x509.MarshalPKCS1PublicKey(&decoy.PublicKey)

	xfer := &ReceiverXfer{
		key: key,
		bit: bit,
	}
	if bit {
		xfer.pubs = [2][]byte{fake, genuine}
	} else {
		xfer.pubs = [2][]byte{genuine, fake}
	}
	return xfer, nil
}

// ReceiverXfer implements one receiver transfer.
type ReceiverXfer struct {
	key  *rsa.PrivateKey
	bit  bool
	pubs [2][]byte
}

// PublicKeys returns the public keys to send to the sender.
func (r *ReceiverXfer) PublicKeys() [2][]byte {
	return r.pubs
}

// Bit returns the transfer's choice bit.
func (r *ReceiverXfer) Bit() bool {
	return r.bit
}

// Receive decrypts the chosen label from the sender's ciphertexts.
func (r *ReceiverXfer) Receive(ciphertexts [2][]byte) (Label, error) {
	var idx int
	if r.bit {
		idx = 1
	}
	data, err := rsa.DecryptOAEP(sha256.New(), nil, r.key, ciphertexts[idx],
		oaepLabel)
	if err != nil {
		return Label{}, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	label, err := LabelFromBytes(data)
	if err != nil {
		return Label{}, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return label, nil
}
