// Package wire implements the datagram request/response codec from
// spec §6: one command per datagram, ASCII, and a single native-endian
// signed int32 reply. It is an external collaborator of the engine core
// (the "Parser"), not part of the concurrent tree engine itself.
package wire

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Op identifies which of the five operations a Command dispatches to.
type Op byte

const (
	OpCreate Op = 'c'
	OpDelete Op = 'd'
	OpLookup Op = 'l'
	OpMove   Op = 'm'
	OpPrint  Op = 'p'
)

// NodeKind is the create-command's second argument: file or directory.
type NodeKind byte

const (
	NodeFile NodeKind = 'f'
	NodeDir  NodeKind = 'd'
)

// Command is a single parsed request line.
type Command struct {
	Op Op

	// Path is the sole path argument for create/delete/lookup, and the
	// output file path for print.
	Path string

	// NewPath is move's second argument.
	NewPath string

	// Kind is create's node-type argument.
	Kind NodeKind
}

// Parse tokenizes one command line per spec §6:
//
//	c <path> f|d
//	d <path>
//	l <path>
//	m <old> <new>
//	p <out_path>
func Parse(line string, maxFileName int) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("wire: empty command")
	}
	if len(fields[0]) != 1 {
		return Command{}, fmt.Errorf("wire: malformed opcode %q", fields[0])
	}

	op := Op(fields[0][0])
	switch op {
	case OpCreate:
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("wire: create wants 2 arguments, got %d", len(fields)-1)
		}
		kind := NodeKind(fields[2][0])
		if len(fields[2]) != 1 || (kind != NodeFile && kind != NodeDir) {
			return Command{}, fmt.Errorf("wire: create: invalid node kind %q", fields[2])
		}
		if err := checkPath(fields[1], maxFileName); err != nil {
			return Command{}, err
		}
		return Command{Op: op, Path: fields[1], Kind: kind}, nil

	case OpDelete, OpLookup, OpPrint:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("wire: %c wants 1 argument, got %d", op, len(fields)-1)
		}
		if op != OpPrint {
			if err := checkPath(fields[1], maxFileName); err != nil {
				return Command{}, err
			}
		}
		return Command{Op: op, Path: fields[1]}, nil

	case OpMove:
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("wire: move wants 2 arguments, got %d", len(fields)-1)
		}
		if err := checkPath(fields[1], maxFileName); err != nil {
			return Command{}, err
		}
		if err := checkPath(fields[2], maxFileName); err != nil {
			return Command{}, err
		}
		return Command{Op: op, Path: fields[1], NewPath: fields[2]}, nil

	default:
		return Command{}, fmt.Errorf("wire: unknown opcode %q", fields[0])
	}
}

func checkPath(path string, maxFileName int) error {
	// maxFileName includes the C implementation's NUL terminator.
	if len(path) > maxFileName-1 {
		return fmt.Errorf("wire: path %q exceeds max length %d", path, maxFileName-1)
	}
	if strings.ContainsAny(path, " \t") {
		return fmt.Errorf("wire: path %q contains whitespace", path)
	}
	return nil
}

// EncodeResponse packs a reply code as a native-endian int32, matching
// the C server's `write(sock, &opReturn, sizeof(opReturn))`.
func EncodeResponse(code int32) []byte {
	buf := make([]byte, 4)
	binary.NativeEndian.PutUint32(buf, uint32(code))
	return buf
}

// DecodeResponse unpacks a reply datagram.
func DecodeResponse(buf []byte) (int32, error) {
	if len(buf) < 4 {
		return 0, fmt.Errorf("wire: short response (%d bytes)", len(buf))
	}
	return int32(binary.NativeEndian.Uint32(buf)), nil
}

// String renders a Command back to wire form, mainly for logging.
func (c Command) String() string {
	switch c.Op {
	case OpCreate:
		return fmt.Sprintf("c %s %c", c.Path, c.Kind)
	case OpMove:
		return fmt.Sprintf("m %s %s", c.Path, c.NewPath)
	default:
		return fmt.Sprintf("%c %s", c.Op, c.Path)
	}
}
