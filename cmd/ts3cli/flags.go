package main

import (
	"flag"
	"fmt"
	"strconv"
)

// flagSet wraps flag.FlagSet to add support for uint8 flags.
type flagSet struct {
	*flag.FlagSet
}

// newCustomFlagSet creates a flagSet with ContinueOnError behavior.
func newCustomFlagSet(name string) *flagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &flagSet{FlagSet: fs}
}

// Uint8Var defines a uint8 flag. Go's standard flag package lacks uint8
// support, so we use a custom Value implementation.
func (fs *flagSet) Uint8Var(p *uint8, name string, value uint8, usage string) {
	fs.FlagSet.Var(&uint8Value{p: p}, name, usage)
	*p = value
}

type uint8Value struct {
	p *uint8
}

func (v *uint8Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(uint64(*v.p), 10)
}

func (v *uint8Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return fmt.Errorf("invalid uint8 value %q", s)
	}
	*v.p = uint8(n)
	return nil
}
