//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"os"

	"github.com/markkurossi/yao"
	"github.com/markkurossi/yao/circuit"
	"github.com/markkurossi/yao/p2p"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sessions int

var garblerCmd = &cobra.Command{
	Use:   "garbler",
	Short: "Run the garbler and serve evaluator sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		circ, err := newCircuit(circName, width)
		if err != nil {
			return err
		}
		values, err := parseInputs()
		if err != nil {
			return err
		}
		config, err := newConfig()
		if err != nil {
			return err
		}
		defer config.Logger.Sync()

		server, err := circuit.NewServer(config, circ, values)
		if err != nil {
			return err
		}
		listener, err := p2p.Listen(addr, timeout)
		if err != nil {
			return err
		}
		defer listener.Close()

		fmt.Printf("Listening at %s\n", listener.Addr())
		config.Logger.Info("garbler listening",
			zap.Stringer("addr", listener.Addr()),
			zap.Stringer("circuit", circ))

		for i := 0; sessions == 0 || i < sessions; i++ {
			conn, err := listener.Accept()
			if err != nil {
				return err
			}
			results, err := server.Serve(conn)
			if err != nil {
				config.Logger.Warn("session failed", zap.Error(err))
				fmt.Fprintf(os.Stderr, "session failed: %s\n", err)
				continue
			}
			yao.PrintResults(os.Stdout, results, base)
			if verbose {
				server.Timing().Print(os.Stdout, conn.Stats)
			}
		}
		return nil
	},
}

var evaluatorCmd = &cobra.Command{
	Use:   "evaluator",
	Short: "Connect to the garbler and evaluate the circuit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseInputs()
		if err != nil {
			return err
		}
		config, err := newConfig()
		if err != nil {
			return err
		}
		defer config.Logger.Sync()

		evaluator, err := circuit.NewEvaluator(config, 1)
		if err != nil {
			return err
		}
		conn, err := p2p.Dial(addr, timeout)
		if err != nil {
			return err
		}
		results, err := evaluator.Run(conn, values)
		if err != nil {
			return err
		}
		yao.PrintResults(os.Stdout, results, base)
		if verbose {
			evaluator.Timing().Print(os.Stdout, conn.Stats)
		}
		return nil
	},
}

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Evaluate the circuit in plaintext with all inputs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		circ, err := newCircuit(circName, width)
		if err != nil {
			return err
		}
		values, err := parseInputs()
		if err != nil {
			return err
		}
		outputs, err := circ.Compute(values)
		if err != nil {
			return err
		}
		var results []circuit.Result
		for _, out := range circ.Outputs {
			results = append(results, circuit.Result{
				Name:  out.Name,
				Kind:  out.Kind,
				Value: outputs[out.Name],
			})
		}
		yao.PrintResults(os.Stdout, results, base)
		return nil
	},
}

var dotCmd = &cobra.Command{
	Use:   "dot",
	Short: "Print the circuit in graphviz dot format",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		circ, err := newCircuit(circName, width)
		if err != nil {
			return err
		}
		circ.Dot(os.Stdout)
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the circuit gates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		circ, err := newCircuit(circName, width)
		if err != nil {
			return err
		}
		circ.Dump(os.Stdout)
		return nil
	},
}

func init() {
	garblerCmd.Flags().IntVarP(&sessions, "sessions", "n", 0,
		"number of sessions to serve, 0 for unlimited")
}
