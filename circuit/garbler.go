//
// garbler.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"errors"
	"fmt"
	"time"

	"github.com/markkurossi/yao/env"
	"github.com/markkurossi/yao/ot"
	"github.com/markkurossi/yao/p2p"
	"go.uber.org/zap"
)

// Server implements the garbler. It holds the plaintext circuit and
// the garbler's committed input bits and serves evaluator sessions.
type Server struct {
	config *env.Config
	log    *zap.Logger
	circ   *Circuit
	inputs map[Wire]bool
	timing *Timing
}

// NewServer creates a new garbler for the circuit. The inputs map the
// garbler's input names to their values. The inputs are encoded and
// committed here, before any evaluator connects.
func NewServer(config *env.Config, circ *Circuit,
	inputs map[string]int64) (*Server, error) {

	committed := make(map[Wire]bool)
	for _, io := range circ.Inputs {
		if err := CheckParty(int(io.Party)); err != nil {
			return nil, fmt.Errorf("input %s: %w", io.Name, err)
		}
		if io.Party != PartyGarbler {
			if _, ok := inputs[io.Name]; ok {
				return nil, fmt.Errorf("%w: input %s belongs to %s",
					ErrAssignment, io.Name, io.Party)
			}
			continue
		}
		v, ok := inputs[io.Name]
		if !ok {
			return nil, fmt.Errorf("%w: input %s not set", ErrAssignment,
				io.Name)
		}
		bits, err := io.Encode(v)
		if err != nil {
			return nil, err
		}
		for i, w := range io.Wires {
			committed[w] = bits[i]
		}
	}
	for name := range inputs {
		if _, ok := circ.Inputs.Find(name); !ok {
			return nil, fmt.Errorf("%w: unknown input %s", ErrAssignment,
				name)
		}
	}

	return &Server{
		config: config,
		log:    config.GetLogger().With(zap.Stringer("party", PartyGarbler)),
		circ:   circ,
		inputs: committed,
	}, nil
}

// Timing returns the timing samples of the last session.
func (s *Server) Timing() *Timing {
	return s.timing
}

type session struct {
	*Server
	conn       *p2p.Conn
	garbled    *Garbled
	gates      map[Wire]Gate
	allowedOTs map[Wire]bool
	sender     *ot.Sender
	results    []Result
	numOTs     int
	otTime     time.Duration
}

// Serve serves one evaluator session over the connection. Each
// session garbles the circuit with fresh labels. Serve processes one
// request at a time until the evaluator closes the session or the
// connection fails. It returns the outputs the evaluator sent with
// SEND_OUTPUT. Serve closes the connection when it returns.
func (s *Server) Serve(conn *p2p.Conn) ([]Result, error) {
	defer conn.Close()

	if t := s.config.GetTimeout(); t > 0 {
		conn.SetTimeout(t)
	}
	timing := NewTiming()
	s.timing = timing

	rand := s.config.GetRandom()
	garbled, err := s.circ.Garble(rand)
	if err != nil {
		return nil, err
	}
	timing.Sample("Garble", []string{
		fmt.Sprintf("%d gates", s.circ.NumGates),
	})

	sess := &session{
		Server:     s,
		conn:       conn,
		garbled:    garbled,
		gates:      make(map[Wire]Gate),
		allowedOTs: make(map[Wire]bool),
		sender:     ot.NewSender(rand),
	}
	for _, gate := range s.circ.Gates {
		sess.gates[gate.ID()] = gate
	}

	// Init wires the peer is allowed to OT.
	for _, io := range s.circ.Inputs.Party(PartyEvaluator) {
		for _, w := range io.Wires {
			sess.allowedOTs[w] = true
		}
	}

	ioStats := conn.Stats.Snapshot()
	err = sess.serve()
	ioStats = conn.Stats.Sub(ioStats)

	sample := timing.Sample("Serve", []string{
		FileSize(ioStats.Sum()).String(),
	})
	sample.AbsSubSample(fmt.Sprintf("OT×%d", sess.numOTs), sess.otTime)

	if err != nil {
		s.log.Warn("session failed", zap.Error(err))
		return nil, err
	}
	s.log.Info("session closed", zap.Int("ots", sess.numOTs),
		zap.Int("results", len(sess.results)))

	return sess.results, nil
}

func (sess *session) serve() error {
	for {
		var req Request
		var payload any

		err := receiveMessage(sess.conn, &req)
		if err != nil {
			if !errors.Is(err, ErrProtocol) {
				return err
			}
			if err := sess.reject(req.Kind, err); err != nil {
				return err
			}
			continue
		}
		sess.log.Debug("request", zap.String("kind", string(req.Kind)))

		switch req.Kind {
		case ReqFetchGarbledTable:
			payload, err = sess.metadata()

		case ReqFetchGateInputKeys:
			payload, err = sess.gateInputKeys(req.Payload)

		case ReqOTKeyTransfer:
			payload, err = sess.otKeyTransfer(req.Payload)

		case ReqConstKeyTransfer:
			payload = &ConstKeys{
				Keys: sess.constKeys(),
			}

		case ReqSendOutput:
			payload, err = sess.sendOutput(req.Payload)

		case ReqCloseConnection:
			return sendMessage(sess.conn, &Reply{
				Msg: MsgOK,
			})

		default:
			err = fmt.Errorf("%w: unknown request %q", ErrProtocol,
				string(req.Kind))
		}
		if err != nil {
			if !errors.Is(err, ErrProtocol) {
				return err
			}
			if err := sess.reject(req.Kind, err); err != nil {
				return err
			}
			continue
		}
		data, err := encodePayload(payload)
		if err != nil {
			return err
		}
		err = sendMessage(sess.conn, &Reply{
			Msg:     MsgOK,
			Payload: data,
		})
		if err != nil {
			return err
		}
	}
}

// reject sends an error reply for the rejected request. The session
// continues after the reply.
func (sess *session) reject(kind RequestKind, reason error) error {
	sess.log.Info("request rejected", zap.String("kind", string(kind)),
		zap.Error(reason))
	return sendMessage(sess.conn, &Reply{
		Msg:    MsgError,
		Reason: reason.Error(),
	})
}

func (sess *session) constKeys() map[Wire][]byte {
	result := make(map[Wire][]byte)
	for _, w := range sess.circ.Constants() {
		result[w] = sess.garbled.Label(w, sess.circ.Wires[w].Value).Bytes()
	}
	return result
}

func (sess *session) metadata() (*Metadata, error) {
	md := &Metadata{
		Inputs:        copyIO(sess.circ.Inputs),
		Tables:        sess.garbled.Tables,
		ConstKeys:     sess.constKeys(),
		Prerequisites: sess.circ.Prerequisites(),
	}
	for _, io := range sess.circ.Outputs {
		output := Output{
			Name:  io.Name,
			Kind:  io.Kind,
			Wires: io.Wires,
		}
		for _, w := range io.Wires {
			output.Reveal = append(output.Reveal, [2][]byte{
				Commitment(w, sess.garbled.Label(w, false)),
				Commitment(w, sess.garbled.Label(w, true)),
			})
		}
		md.Outputs = append(md.Outputs, output)
	}
	return md, nil
}

func (sess *session) gateInputKeys(data []byte) (*GateInputKeys, error) {
	var req FetchGateInputKeys
	if err := decodePayload(data, &req); err != nil {
		return nil, err
	}
	gate, ok := sess.gates[req.GateID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown gate %s", ErrProtocol, req.GateID)
	}
	result := &GateInputKeys{
		GateID: req.GateID,
	}
	for _, w := range gate.Inputs() {
		info := KeyInfo{
			WireID: w,
		}
		owner := sess.circ.Wires[w].Owner
		switch owner {
		case OwnerInternal:

		case PartyGarbler:
			info.Key = sess.garbled.Label(w, sess.inputs[w]).Bytes()
			info.PartyID = &owner

		default:
			info.PartyID = &owner
		}
		result.KeysInfo = append(result.KeysInfo, info)
	}
	return result, nil
}

func (sess *session) otKeyTransfer(data []byte) (*OTKeys, error) {
	start := time.Now()
	defer func() {
		sess.otTime += time.Since(start)
	}()

	var req OTKeyTransfer
	if err := decodePayload(data, &req); err != nil {
		return nil, err
	}
	if int(req.WireID) >= sess.circ.NumWires ||
		sess.circ.Wires[req.WireID].Owner != req.PartyID ||
		req.PartyID != PartyEvaluator {
		return nil, fmt.Errorf("%w: wire %s not owned by %s",
			ErrProtocol, req.WireID, req.PartyID)
	}
	if !sess.allowedOTs[req.WireID] {
		return nil, fmt.Errorf("%w: peer can't OT wire %s again",
			ErrProtocol, req.WireID)
	}
	ciphertexts, err := sess.sender.Send(sess.garbled.Wires[req.WireID],
		req.PublicKeys)
	if err != nil {
		// The wire stays available for a transfer with valid keys.
		return nil, fmt.Errorf("%w: wire %s: %w", ErrProtocol, req.WireID,
			err)
	}
	sess.allowedOTs[req.WireID] = false
	sess.numOTs++

	sess.log.Debug("OT", zap.Stringer("wire", req.WireID))

	return &OTKeys{
		Key: ciphertexts,
	}, nil
}

func (sess *session) sendOutput(data []byte) (*Results, error) {
	var req SendOutput
	if err := decodePayload(data, &req); err != nil {
		return nil, err
	}
	labels := make(map[string][][]byte)
	for _, o := range req.Outputs {
		labels[o.Name] = o.Labels
	}

	result := new(Results)
	for _, io := range sess.circ.Outputs {
		l, ok := labels[io.Name]
		if !ok {
			return nil, fmt.Errorf("%w: output %s missing", ErrProtocol,
				io.Name)
		}
		if len(l) != len(io.Wires) {
			return nil, fmt.Errorf("%w: output %s: got %d labels, expected %d",
				ErrProtocol, io.Name, len(l), len(io.Wires))
		}
		bits := make([]bool, len(io.Wires))
		for i, w := range io.Wires {
			label, err := ot.LabelFromBytes(l[i])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
			}
			bits[i], err = sess.garbled.Wires[w].Bit(label)
			if err != nil {
				return nil, fmt.Errorf("%w: output %s: %v", ErrProtocol,
					io.Name, err)
			}
		}
		v, err := io.Decode(bits)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
		}
		result.Results = append(result.Results, Result{
			Name:  io.Name,
			Kind:  io.Kind,
			Value: v,
		})
	}
	sess.results = result.Results

	return result, nil
}
