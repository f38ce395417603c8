//
// main.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/markkurossi/yao/circuit"
	"github.com/markkurossi/yao/env"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	addr     string
	circName string
	width    int
	inputs   []string
	otBits   int
	timeout  time.Duration
	base     int
	verbose  bool
	debug    bool
)

var rootCmd = &cobra.Command{
	Use:           "yao",
	Short:         "Two-party secure computation with Yao's garbled circuits",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&circName, "circuit", "c", "millionaires",
		"example circuit: add, equality, millionaires")
	flags.IntVarP(&width, "width", "w", circuit.DefaultWidth,
		"integer width in bits")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&debug, "debug", "d", false, "debug output")

	for _, cmd := range []*cobra.Command{garblerCmd, evaluatorCmd} {
		cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:8080",
			"network address")
		cmd.Flags().IntVar(&otBits, "ot-bits", env.DefaultOTKeyBits,
			"RSA key size for oblivious transfer")
		cmd.Flags().DurationVar(&timeout, "timeout", time.Minute,
			"round trip timeout")
	}
	for _, cmd := range []*cobra.Command{garblerCmd, evaluatorCmd, computeCmd} {
		cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil,
			"input assignment name=value")
		cmd.Flags().IntVar(&base, "base", 10, "result output base")
	}

	rootCmd.AddCommand(garblerCmd)
	rootCmd.AddCommand(evaluatorCmd)
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(dotCmd)
	rootCmd.AddCommand(dumpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	if verbose {
		return zap.NewProduction()
	}
	return zap.NewNop(), nil
}

func newConfig() (*env.Config, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	return &env.Config{
		Logger:    logger,
		OTKeyBits: otBits,
		Timeout:   timeout,
		Verbose:   verbose,
	}, nil
}

// parseInputs parses the name=value input assignments.
func parseInputs() (map[string]int64, error) {
	result := make(map[string]int64)
	for _, arg := range inputs {
		name, value, err := circuit.ParseAssignment(arg)
		if err != nil {
			return nil, err
		}
		if _, ok := result[name]; ok {
			return nil, fmt.Errorf("input %s assigned multiple times", name)
		}
		result[name] = value
	}
	return result, nil
}
