// Package trace parses and replays malloc-lab trace files against a
// malloclab.Allocator. This is consumer tooling built around the allocator
// core, not part of it: the core has no dependency on this package or on
// the trace file format.
//
// A trace file is the classical handout's plain-text ".rep" format:
//
//	<num ids> <num ops> <weight>
//	a <id> <size>
//	f <id>
//	r <id> <size>
//	...
//
// "a" allocates a fresh block and remembers it under id, "f" frees the
// block previously allocated under id, and "r" reallocates it to a new
// size. ids are reused across a trace (a trace may free an id and later
// allocate a new block under the same id).
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// OpKind identifies one line of a parsed trace.
type OpKind int

const (
	OpAlloc OpKind = iota
	OpFree
	OpRealloc
)

func (k OpKind) String() string {
	switch k {
	case OpAlloc:
		return "alloc"
	case OpFree:
		return "free"
	case OpRealloc:
		return "realloc"
	default:
		return "unknown"
	}
}

// Op is a single trace operation, 1:1 with one non-header line of a trace
// file.
type Op struct {
	Kind OpKind
	ID   int
	Size int // unused for OpFree
}

// Trace is a fully parsed trace file.
type Trace struct {
	NumIDs int
	Weight float64
	Ops    []Op
}

// Parse reads a trace file from r. Parse errors are wrapped with the
// offending line number via github.com/pkg/errors so a malformed trace
// points straight at the bad line.
func Parse(r io.Reader) (*Trace, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	readLine := func() (string, bool) {
		for sc.Scan() {
			line++
			s := strings.TrimSpace(sc.Text())
			if s == "" {
				continue
			}
			return s, true
		}
		return "", false
	}

	header, ok := readLine()
	if !ok {
		return nil, errors.New("trace: empty input, missing header line")
	}

	fields := strings.Fields(header)
	if len(fields) < 3 {
		return nil, errors.Errorf("trace: line %d: header %q must have 3 fields (ids, ops, weight)", line, header)
	}

	numIDs, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, errors.Wrapf(err, "trace: line %d: bad id count %q", line, fields[0])
	}
	numOps, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, errors.Wrapf(err, "trace: line %d: bad op count %q", line, fields[1])
	}
	weight, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return nil, errors.Wrapf(err, "trace: line %d: bad weight %q", line, fields[2])
	}

	t := &Trace{NumIDs: numIDs, Weight: weight, Ops: make([]Op, 0, numOps)}
	for {
		s, ok := readLine()
		if !ok {
			break
		}

		op, err := parseOp(s)
		if err != nil {
			return nil, errors.Wrapf(err, "trace: line %d", line)
		}
		t.Ops = append(t.Ops, op)
	}

	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "trace: scanning input")
	}
	if len(t.Ops) != numOps {
		return nil, errors.Errorf("trace: header declared %d ops, found %d", numOps, len(t.Ops))
	}
	return t, nil
}

func parseOp(s string) (Op, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return Op{}, errors.Errorf("malformed op %q", s)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return Op{}, errors.Wrapf(err, "bad id in %q", s)
	}

	switch fields[0] {
	case "a":
		if len(fields) < 3 {
			return Op{}, errors.Errorf("alloc op %q missing size", s)
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return Op{}, errors.Wrapf(err, "bad size in %q", s)
		}
		return Op{Kind: OpAlloc, ID: id, Size: size}, nil

	case "f":
		return Op{Kind: OpFree, ID: id}, nil

	case "r":
		if len(fields) < 3 {
			return Op{}, errors.Errorf("realloc op %q missing size", s)
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return Op{}, errors.Wrapf(err, "bad size in %q", s)
		}
		return Op{Kind: OpRealloc, ID: id, Size: size}, nil

	default:
		return Op{}, errors.Errorf("unknown op kind %q in %q", fields[0], s)
	}
}

// Validate checks that every Free/Realloc op's id names a block previously
// allocated (and not yet freed), catching a malformed trace before it is
// ever handed to an allocator.
func (t *Trace) Validate() error {
	live := make(map[int]bool, t.NumIDs)
	for i, op := range t.Ops {
		switch op.Kind {
		case OpAlloc:
			live[op.ID] = true
		case OpFree, OpRealloc:
			if !live[op.ID] {
				return fmt.Errorf("trace: op %d (%s id=%d): id not currently allocated", i, op.Kind, op.ID)
			}
			if op.Kind == OpFree {
				live[op.ID] = false
			}
		}
	}
	return nil
}
