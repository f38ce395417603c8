//
// protocol.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/markkurossi/yao/ot"
	"github.com/markkurossi/yao/p2p"
)

// RequestKind specifies the evaluator request type.
type RequestKind string

// Request kinds.
const (
	ReqFetchGarbledTable  RequestKind = "FETCH_GARBLED_TABLE"
	ReqFetchGateInputKeys RequestKind = "FETCH_GARBLED_GATE_INPUT_KEYS"
	ReqOTKeyTransfer      RequestKind = "OT_KEY_TRANSFER"
	ReqConstKeyTransfer   RequestKind = "CONST_VALUE_KEY_TRANSFER"
	ReqSendOutput         RequestKind = "SEND_OUTPUT"
	ReqCloseConnection    RequestKind = "CLOSE_CONNECTION"
)

// Reply messages.
const (
	MsgOK    = "ok"
	MsgError = "error"
)

const (
	commitmentSize = 32
	maxKeyData     = 64 * 1024
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Request is the evaluator request envelope.
type Request struct {
	Kind    RequestKind     `cbor:"request"`
	Payload cbor.RawMessage `cbor:"payload,omitempty"`
}

// Reply is the garbler reply envelope. The Msg is MsgOK for served
// requests and MsgError for rejected requests, in which case the
// Reason tells why the request was rejected.
type Reply struct {
	Msg     string          `cbor:"msg"`
	Reason  string          `cbor:"reason,omitempty"`
	Payload cbor.RawMessage `cbor:"payload,omitempty"`
}

// Payload is a request or reply payload. Payloads are validated when
// they are received, before they are processed.
type Payload interface {
	Validate() error
}

// Empty is the payload of requests without arguments.
type Empty struct{}

// Validate implements Payload.Validate.
func (p *Empty) Validate() error {
	return nil
}

// FetchGateInputKeys requests the input key info of a gate.
type FetchGateInputKeys struct {
	GateID Wire `cbor:"gate_id"`
}

// Validate implements Payload.Validate.
func (p *FetchGateInputKeys) Validate() error {
	return nil
}

// KeyInfo describes how the evaluator gets the key of a gate input
// wire:
//
//   - gate outputs have no PartyID and no Key: the evaluator copies
//     the key from the evaluated parent gate
//   - garbler inputs carry the key of the garbler's committed input bit
//   - evaluator inputs have the evaluator as PartyID and no Key: the
//     evaluator receives the key with oblivious transfer
//   - constants have OwnerConstant as PartyID: the keys come with the
//     constant key map
type KeyInfo struct {
	WireID  Wire   `cbor:"wire_id"`
	Key     []byte `cbor:"key"`
	PartyID *Party `cbor:"party_id,omitempty"`
}

// GateInputKeys contains the input key info of a gate.
type GateInputKeys struct {
	GateID   Wire      `cbor:"gate_id"`
	KeysInfo []KeyInfo `cbor:"keys_info"`
}

// Validate implements Payload.Validate.
func (p *GateInputKeys) Validate() error {
	if len(p.KeysInfo) == 0 || len(p.KeysInfo) > 2 {
		return fmt.Errorf("%w: gate %s: invalid number of keys: %d",
			ErrProtocol, p.GateID, len(p.KeysInfo))
	}
	for _, info := range p.KeysInfo {
		if info.Key == nil {
			continue
		}
		if len(info.Key) != ot.LabelSize {
			return fmt.Errorf("%w: wire %s: invalid key length %d",
				ErrProtocol, info.WireID, len(info.Key))
		}
		if info.PartyID == nil {
			return fmt.Errorf("%w: wire %s: key without owner",
				ErrProtocol, info.WireID)
		}
	}
	return nil
}

// OTKeyTransfer requests the key of an evaluator owned input wire
// with oblivious transfer. The PublicKeys are the receiver's genuine
// and decoy public keys, ordered by the receiver's choice bit.
type OTKeyTransfer struct {
	WireID     Wire      `cbor:"wire_id"`
	PartyID    Party     `cbor:"party_id"`
	PublicKeys [2][]byte `cbor:"public_keys"`
}

// Validate implements Payload.Validate.
func (p *OTKeyTransfer) Validate() error {
	if err := CheckParty(int(p.PartyID)); err != nil {
		return err
	}
	for _, key := range p.PublicKeys {
		if len(key) == 0 || len(key) > maxKeyData {
			return fmt.Errorf("%w: invalid public key length %d",
				ErrProtocol, len(key))
		}
	}
	return nil
}

// OTKeys contains the OT sender's ciphertexts of the wire's labels.
type OTKeys struct {
	Key [2][]byte `cbor:"key"`
}

// Validate implements Payload.Validate.
func (p *OTKeys) Validate() error {
	for _, c := range p.Key {
		if len(c) == 0 || len(c) > maxKeyData {
			return fmt.Errorf("%w: invalid OT ciphertext length %d",
				ErrProtocol, len(c))
		}
	}
	return nil
}

// ConstKeys contains the keys of the circuit's constant wires.
type ConstKeys struct {
	Keys map[Wire][]byte `cbor:"const_keys"`
}

// Validate implements Payload.Validate.
func (p *ConstKeys) Validate() error {
	return validateKeys(p.Keys)
}

func validateKeys(keys map[Wire][]byte) error {
	for w, key := range keys {
		if len(key) != ot.LabelSize {
			return fmt.Errorf("%w: wire %s: invalid key length %d",
				ErrProtocol, w, len(key))
		}
	}
	return nil
}

// Output describes a circuit output. The Reveal table holds, for
// each output wire, the commitments of its zero and one labels.
type Output struct {
	Name   string      `cbor:"name"`
	Kind   Kind        `cbor:"kind"`
	Wires  []Wire      `cbor:"wires"`
	Reveal [][2][]byte `cbor:"reveal"`
}

// Arg returns the output as an I/O argument.
func (o Output) Arg() IOArg {
	return IOArg{
		Name:  o.Name,
		Kind:  o.Kind,
		Party: OwnerInternal,
		Wires: o.Wires,
	}
}

// Metadata is the garbled circuit metadata the evaluator fetches with
// FETCH_GARBLED_TABLE.
type Metadata struct {
	Inputs        IO                `cbor:"inputs"`
	Tables        map[Wire][][]byte `cbor:"garbled_table"`
	Outputs       []Output          `cbor:"outputs"`
	ConstKeys     map[Wire][]byte   `cbor:"const_keys"`
	Prerequisites [][]Wire          `cbor:"gate_prerequisites"`
}

// Validate implements Payload.Validate.
func (p *Metadata) Validate() error {
	for _, input := range p.Inputs {
		if err := input.Kind.Check(); err != nil {
			return err
		}
		if err := CheckParty(int(input.Party)); err != nil {
			return fmt.Errorf("input %s: %w", input.Name, err)
		}
		if input.Kind == KindWire && len(input.Wires) != 1 {
			return fmt.Errorf("%w: input %s: %d wires for a %s",
				ErrProtocol, input.Name, len(input.Wires), input.Kind)
		}
	}
	if len(p.Outputs) == 0 {
		return fmt.Errorf("%w: no outputs", ErrProtocol)
	}
	for _, output := range p.Outputs {
		if err := output.Kind.Check(); err != nil {
			return err
		}
		if len(output.Wires) == 0 || len(output.Wires) > 64 {
			return fmt.Errorf("%w: output %s: invalid width %d",
				ErrProtocol, output.Name, len(output.Wires))
		}
		if len(output.Reveal) != len(output.Wires) {
			return fmt.Errorf("%w: output %s: %d reveal entries for %d wires",
				ErrProtocol, output.Name, len(output.Reveal),
				len(output.Wires))
		}
		for _, r := range output.Reveal {
			if len(r[0]) != commitmentSize || len(r[1]) != commitmentSize {
				return fmt.Errorf("%w: output %s: invalid commitment",
					ErrProtocol, output.Name)
			}
		}
	}
	return validateKeys(p.ConstKeys)
}

// SendOutput carries the evaluator's output labels to the garbler.
type SendOutput struct {
	Outputs []OutputLabels `cbor:"outputs"`
}

// OutputLabels contains the evaluated labels of an output.
type OutputLabels struct {
	Name   string   `cbor:"name"`
	Labels [][]byte `cbor:"labels"`
}

// Validate implements Payload.Validate.
func (p *SendOutput) Validate() error {
	for _, output := range p.Outputs {
		for _, label := range output.Labels {
			if len(label) != ot.LabelSize {
				return fmt.Errorf("%w: output %s: invalid label length %d",
					ErrProtocol, output.Name, len(label))
			}
		}
	}
	return nil
}

// Results contains the decoded circuit outputs.
type Results struct {
	Results []Result `cbor:"results"`
}

// Validate implements Payload.Validate.
func (p *Results) Validate() error {
	for _, r := range p.Results {
		if err := r.Kind.Check(); err != nil {
			return err
		}
	}
	return nil
}

// Result is a decoded circuit output.
type Result struct {
	Name  string `cbor:"name"`
	Kind  Kind   `cbor:"kind"`
	Value uint64 `cbor:"value"`
}

// Bool returns the result as a boolean value.
func (r Result) Bool() bool {
	return r.Value != 0
}

func (r Result) String() string {
	if r.Kind == KindWire {
		return fmt.Sprintf("%s=%v", r.Name, r.Bool())
	}
	return fmt.Sprintf("%s=%d", r.Name, r.Value)
}

// encodePayload encodes the payload in the deterministic CBOR
// encoding.
func encodePayload(payload any) (cbor.RawMessage, error) {
	if payload == nil {
		payload = &Empty{}
	}
	return encMode.Marshal(payload)
}

// decodePayload decodes and validates the payload.
func decodePayload(data cbor.RawMessage, payload Payload) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing payload", ErrProtocol)
	}
	if err := decMode.Unmarshal(data, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return payload.Validate()
}

func sendMessage(conn *p2p.Conn, msg any) error {
	data, err := encMode.Marshal(msg)
	if err != nil {
		return err
	}
	if err := conn.SendData(data); err != nil {
		return err
	}
	return conn.Flush()
}

func receiveMessage(conn *p2p.Conn, msg any) error {
	data, err := conn.ReceiveData()
	if err != nil {
		return err
	}
	if err := decMode.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return nil
}

// roundTrip sends the request to the garbler and receives its reply
// into the result payload. The result can be nil for requests without
// reply payload.
func roundTrip(conn *p2p.Conn, kind RequestKind, payload any,
	result Payload) error {

	data, err := encodePayload(payload)
	if err != nil {
		return err
	}
	err = sendMessage(conn, &Request{
		Kind:    kind,
		Payload: data,
	})
	if err != nil {
		return err
	}
	var reply Reply
	if err := receiveMessage(conn, &reply); err != nil {
		return err
	}
	switch reply.Msg {
	case MsgOK:
	case MsgError:
		return fmt.Errorf("%w: %w: %s: %s", ErrProtocol, ErrRejected, kind,
			reply.Reason)
	default:
		return fmt.Errorf("%w: %s: unexpected reply %q", ErrProtocol, kind,
			reply.Msg)
	}
	if result == nil {
		return nil
	}
	return decodePayload(reply.Payload, result)
}
