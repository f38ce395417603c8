//
// ot.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.

// Package ot implements the 1-out-of-2 oblivious transfer used to
// deliver the evaluator's input wire labels. The receiver creates a
// genuine and a decoy RSA key pair and sends both public keys to the
// sender, ordered by its choice bit. The sender encrypts the zero
// label with the first key and the one label with the second key.
// The receiver can decrypt only the label at the position of its
// genuine key, and the sender can't tell which of the two keys is
// genuine.
package ot
