//
// evaluator.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"bytes"
	"fmt"
	"time"

	"github.com/markkurossi/yao/env"
	"github.com/markkurossi/yao/ot"
	"github.com/markkurossi/yao/p2p"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
)

// GateState specifies the evaluation state of a gate.
type GateState int

// Gate states.
const (
	Pending GateState = iota
	KeysResolved
	Evaluated
)

func (s GateState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case KeysResolved:
		return "KeysResolved"
	case Evaluated:
		return "Evaluated"
	default:
		return fmt.Sprintf("{GateState %d}", int(s))
	}
}

// Evaluator implements the evaluator of a garbled circuit. The
// evaluation runs in steps: FetchMetadata, FetchConstKeys, SetInputs,
// Evaluate, Results, SendOutput, and Close. Each protocol step takes
// the session connection as an argument. Run executes all steps.
type Evaluator struct {
	config   *env.Config
	log      *zap.Logger
	party    Party
	receiver *ot.Receiver
	timing   *Timing
	otTime   time.Duration
	numOTs   int

	meta      *Metadata
	graph     *Graph
	inputs    map[Wire]bool
	constKeys map[Wire]ot.Label
	keys      map[Wire]ot.Label
	states    map[Wire]GateState
}

// NewEvaluator creates a new evaluator for the party. Only party 1
// can evaluate garbled circuits.
func NewEvaluator(config *env.Config, party int) (*Evaluator, error) {
	if err := CheckParty(party); err != nil {
		return nil, err
	}
	if Party(party) == PartyGarbler {
		return nil, fmt.Errorf("%w: %s is the garbler", ErrInvalidParty,
			Party(party))
	}
	return &Evaluator{
		config: config,
		log:    config.GetLogger().With(zap.Stringer("party", Party(party))),
		party:  Party(party),
		receiver: ot.NewReceiver(config.GetRandom(),
			config.GetOTKeyBits()),
		timing: NewTiming(),
	}, nil
}

// Timing returns the evaluator's timing samples.
func (e *Evaluator) Timing() *Timing {
	return e.timing
}

// Metadata returns the fetched garbled circuit metadata.
func (e *Evaluator) Metadata() *Metadata {
	return e.meta
}

// Graph returns the validated gate dependency graph.
func (e *Evaluator) Graph() *Graph {
	return e.graph
}

// State returns the evaluation state of the gate.
func (e *Evaluator) State(gate Wire) GateState {
	return e.states[gate]
}

// Run runs the evaluation session with the inputs. It returns the
// decoded circuit outputs. The connection is closed on return.
func (e *Evaluator) Run(conn *p2p.Conn, inputs map[string]int64) (
	[]Result, error) {

	defer conn.Close()

	if t := e.config.GetTimeout(); t > 0 {
		conn.SetTimeout(t)
	}

	ioStats := conn.Stats.Snapshot()
	if err := e.FetchMetadata(conn); err != nil {
		return nil, err
	}
	if err := e.FetchConstKeys(conn); err != nil {
		return nil, err
	}
	if err := e.SetInputs(inputs); err != nil {
		return nil, err
	}
	xfer := conn.Stats.Sub(ioStats)
	e.timing.Sample("Metadata", []string{FileSize(xfer.Sum()).String()})

	ioStats = conn.Stats.Snapshot()
	if err := e.Evaluate(conn, nil); err != nil {
		return nil, err
	}
	xfer = conn.Stats.Sub(ioStats)
	e.timing.Sample("Eval", []string{FileSize(xfer.Sum()).String()}).
		AbsSubSample(fmt.Sprintf("OT×%d", e.numOTs), e.otTime)

	ioStats = conn.Stats.Snapshot()
	results, err := e.SendOutput(conn)
	if err != nil {
		return nil, err
	}
	if err := e.Close(conn); err != nil {
		return nil, err
	}
	xfer = conn.Stats.Sub(ioStats)
	e.timing.Sample("Result", []string{FileSize(xfer.Sum()).String()})

	return results, nil
}

// FetchMetadata fetches the garbled circuit metadata and validates its
// dependency graph.
func (e *Evaluator) FetchMetadata(conn *p2p.Conn) error {
	meta := new(Metadata)
	if err := roundTrip(conn, ReqFetchGarbledTable, nil, meta); err != nil {
		return err
	}
	graph, err := NewGraph(meta.Prerequisites, meta.Tables, meta.Inputs,
		maps.Keys(meta.ConstKeys))
	if err != nil {
		return err
	}
	for _, output := range meta.Outputs {
		for _, w := range output.Wires {
			if !graph.IsGate(w) {
				return fmt.Errorf("%w: output %s: %s is not a gate output",
					ErrDanglingReference, output.Name, w)
			}
		}
	}
	constKeys, err := labels(meta.ConstKeys)
	if err != nil {
		return err
	}

	e.meta = meta
	e.graph = graph
	e.constKeys = constKeys
	e.inputs = make(map[Wire]bool)
	e.keys = make(map[Wire]ot.Label)
	e.states = make(map[Wire]GateState)
	for _, id := range graph.Order() {
		e.states[id] = Pending
	}

	e.log.Debug("metadata", zap.Int("gates", graph.NumGates()),
		zap.Int("inputs", len(meta.Inputs)),
		zap.Int("outputs", len(meta.Outputs)))

	return nil
}

func labels(keys map[Wire][]byte) (map[Wire]ot.Label, error) {
	result := make(map[Wire]ot.Label)
	for w, key := range keys {
		label, err := ot.LabelFromBytes(key)
		if err != nil {
			return nil, fmt.Errorf("%w: wire %s: %v", ErrProtocol, w, err)
		}
		result[w] = label
	}
	return result, nil
}

// FetchConstKeys fetches the keys of the circuit's constant wires.
func (e *Evaluator) FetchConstKeys(conn *p2p.Conn) error {
	if e.meta == nil {
		return fmt.Errorf("%w: metadata not fetched", ErrProtocol)
	}
	reply := new(ConstKeys)
	if err := roundTrip(conn, ReqConstKeyTransfer, nil, reply); err != nil {
		return err
	}
	constKeys, err := labels(reply.Keys)
	if err != nil {
		return err
	}
	for w := range e.meta.ConstKeys {
		if _, ok := constKeys[w]; !ok {
			return fmt.Errorf("%w: no key for constant %s", ErrProtocol, w)
		}
	}
	e.constKeys = constKeys
	return nil
}

// SetInputs encodes the evaluator's input values. The inputs map the
// evaluator's input names to their values.
func (e *Evaluator) SetInputs(inputs map[string]int64) error {
	if e.meta == nil {
		return fmt.Errorf("%w: metadata not fetched", ErrProtocol)
	}
	for _, io := range e.meta.Inputs {
		v, ok := inputs[io.Name]
		if io.Party != e.party {
			if ok {
				return fmt.Errorf("%w: input %s belongs to %s",
					ErrAssignment, io.Name, io.Party)
			}
			continue
		}
		if !ok {
			return fmt.Errorf("%w: input %s not set", ErrAssignment, io.Name)
		}
		bits, err := io.Encode(v)
		if err != nil {
			return err
		}
		for i, w := range io.Wires {
			e.inputs[w] = bits[i]
		}
	}
	for name := range inputs {
		if _, ok := e.meta.Inputs.Find(name); !ok {
			return fmt.Errorf("%w: unknown input %s", ErrAssignment, name)
		}
	}
	return nil
}

// Evaluate evaluates the gates in the order. If the order is nil, the
// gates are evaluated in the dependency graph's topological order. An
// order that evaluates a gate before its prerequisites is rejected
// before any gate is evaluated.
func (e *Evaluator) Evaluate(conn *p2p.Conn, order []Wire) error {
	if e.graph == nil {
		return fmt.Errorf("%w: metadata not fetched", ErrProtocol)
	}
	if order == nil {
		order = e.graph.Order()
	}
	if err := e.graph.CheckOrder(order); err != nil {
		return err
	}
	for _, id := range order {
		if err := e.evaluateGate(conn, id); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) evaluateGate(conn *p2p.Conn, id Wire) error {
	if e.states[id] == Evaluated {
		return nil
	}
	keys, err := e.resolveKeys(conn, id)
	if err != nil {
		return err
	}
	e.states[id] = KeysResolved

	var b *ot.Label
	if len(keys) > 1 {
		b = &keys[1]
	}
	label, err := Decrypt(id, e.meta.Tables[id], keys[0], b)
	if err != nil {
		return err
	}
	e.keys[id] = label
	e.states[id] = Evaluated

	return nil
}

// resolveKeys fetches the gate's input key info and resolves its
// input labels.
func (e *Evaluator) resolveKeys(conn *p2p.Conn, id Wire) ([]ot.Label,
	error) {

	info := new(GateInputKeys)
	err := roundTrip(conn, ReqFetchGateInputKeys, &FetchGateInputKeys{
		GateID: id,
	}, info)
	if err != nil {
		return nil, err
	}
	inputs := e.graph.Inputs(id)
	if info.GateID != id || len(info.KeysInfo) != len(inputs) {
		return nil, fmt.Errorf("%w: gate %s: key info does not match graph",
			ErrProtocol, id)
	}

	var result []ot.Label
	for i, ki := range info.KeysInfo {
		if ki.WireID != inputs[i] {
			return nil, fmt.Errorf("%w: gate %s: unexpected input %s",
				ErrProtocol, id, ki.WireID)
		}
		label, err := e.resolveKey(conn, ki)
		if err != nil {
			return nil, fmt.Errorf("gate %s: %w", id, err)
		}
		result = append(result, label)
	}
	return result, nil
}

func (e *Evaluator) resolveKey(conn *p2p.Conn, ki KeyInfo) (ot.Label,
	error) {

	w := ki.WireID

	if e.graph.IsGate(w) {
		if e.states[w] != Evaluated {
			return ot.Label{}, fmt.Errorf("%w: %s is %s", ErrPrerequisite,
				w, e.states[w])
		}
		return e.keys[w], nil
	}
	if label, ok := e.keys[w]; ok {
		return label, nil
	}
	if label, ok := e.constKeys[w]; ok {
		return label, nil
	}
	if ki.PartyID == nil {
		return ot.Label{}, fmt.Errorf("%w: no key source for wire %s",
			ErrProtocol, w)
	}

	var label ot.Label
	var err error

	switch *ki.PartyID {
	case PartyGarbler:
		if ki.Key == nil {
			return ot.Label{}, fmt.Errorf("%w: garbler did not reveal %s",
				ErrProtocol, w)
		}
		label, err = ot.LabelFromBytes(ki.Key)
		if err != nil {
			return ot.Label{}, fmt.Errorf("%w: %v", ErrProtocol, err)
		}

	case e.party:
		bit, ok := e.inputs[w]
		if !ok {
			return ot.Label{}, fmt.Errorf("%w: %s is not an input of %s",
				ErrProtocol, w, e.party)
		}
		label, err = e.transfer(conn, w, bit)
		if err != nil {
			return ot.Label{}, err
		}

	default:
		return ot.Label{}, fmt.Errorf("%w: no key source for wire %s of %s",
			ErrProtocol, w, *ki.PartyID)
	}
	e.keys[w] = label

	return label, nil
}

// transfer receives the wire's label for the bit with oblivious
// transfer.
func (e *Evaluator) transfer(conn *p2p.Conn, w Wire, bit bool) (ot.Label,
	error) {

	start := time.Now()
	defer func() {
		e.otTime += time.Since(start)
	}()

	xfer, err := e.receiver.NewTransfer(bit)
	if err != nil {
		return ot.Label{}, err
	}
	reply := new(OTKeys)
	err = roundTrip(conn, ReqOTKeyTransfer, &OTKeyTransfer{
		WireID:     w,
		PartyID:    e.party,
		PublicKeys: xfer.PublicKeys(),
	}, reply)
	if err != nil {
		return ot.Label{}, err
	}
	label, err := xfer.Receive(reply.Key)
	if err != nil {
		return ot.Label{}, fmt.Errorf("wire %s: %w", w, err)
	}
	e.numOTs++
	e.log.Debug("OT", zap.Stringer("wire", w))

	return label, nil
}

// Results decodes the circuit outputs from the evaluated output
// labels with the reveal table.
func (e *Evaluator) Results() ([]Result, error) {
	if e.meta == nil {
		return nil, fmt.Errorf("%w: metadata not fetched", ErrProtocol)
	}
	var results []Result
	for _, output := range e.meta.Outputs {
		bits := make([]bool, len(output.Wires))
		for i, w := range output.Wires {
			if e.states[w] != Evaluated {
				return nil, fmt.Errorf("%w: output %s: %s is %s",
					ErrPrerequisite, output.Name, w, e.states[w])
			}
			c := Commitment(w, e.keys[w])
			switch {
			case bytes.Equal(c, output.Reveal[i][0]):
				bits[i] = false
			case bytes.Equal(c, output.Reveal[i][1]):
				bits[i] = true
			default:
				return nil, fmt.Errorf("%w: output %s: unknown label for %s",
					ErrProtocol, output.Name, w)
			}
		}
		arg := output.Arg()
		v, err := arg.Decode(bits)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{
			Name:  output.Name,
			Kind:  output.Kind,
			Value: v,
		})
	}
	return results, nil
}

// SendOutput decodes the outputs and sends the output labels to the
// garbler so it learns the outputs too. It verifies that the garbler
// decoded the same outputs.
func (e *Evaluator) SendOutput(conn *p2p.Conn) ([]Result, error) {
	results, err := e.Results()
	if err != nil {
		return nil, err
	}
	req := new(SendOutput)
	for _, output := range e.meta.Outputs {
		ol := OutputLabels{
			Name: output.Name,
		}
		for _, w := range output.Wires {
			ol.Labels = append(ol.Labels, e.keys[w].Bytes())
		}
		req.Outputs = append(req.Outputs, ol)
	}
	reply := new(Results)
	if err := roundTrip(conn, ReqSendOutput, req, reply); err != nil {
		return nil, err
	}
	if len(reply.Results) != len(results) {
		return nil, fmt.Errorf("%w: garbler returned %d results, expected %d",
			ErrProtocol, len(reply.Results), len(results))
	}
	for i, r := range reply.Results {
		if r != results[i] {
			return nil, fmt.Errorf("%w: garbler decoded %v, expected %v",
				ErrProtocol, r, results[i])
		}
	}
	return results, nil
}

// Close closes the session: it sends CLOSE_CONNECTION to the garbler
// and closes the connection.
func (e *Evaluator) Close(conn *p2p.Conn) error {
	err := roundTrip(conn, ReqCloseConnection, nil, nil)
	if cerr := conn.Close(); err == nil {
		err = cerr
	}
	return err
}
