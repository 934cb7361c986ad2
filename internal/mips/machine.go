package mips

import (
	"io"
	"strconv"

	"github.com/pkg/errors"

	"pascalc/internal/diag"
	"pascalc/internal/object"
)

// StackTop is the initial stack pointer. The stack grows down.
const StackTop uint32 = 0x7fffeffc

// Machine executes an assembled Program against a register file and a
// word-addressed memory that only the stack uses.
type Machine struct {
	prog *Program

	regs   [32]int32
	hi, lo int32
	mem    map[uint32]int32
	pc     int

	In       object.IntReader // syscall 5
	Out      io.Writer        // syscalls 1 and 11
	MaxSteps int              // instructions per run, 0 for no limit

	steps  int
	halted bool
}

// New prepares prog to run from its entry point.
func New(prog *Program, in io.Reader, out io.Writer) *Machine {
	m := &Machine{prog: prog, In: object.NewWordReader(in), Out: out}
	m.Reset()
	return m
}

// Reset clears registers and memory and rewinds to the entry point.
func (m *Machine) Reset() {
	m.regs = [32]int32{}
	m.regs[regSP] = int32(StackTop)
	m.hi, m.lo = 0, 0
	m.mem = make(map[uint32]int32)
	m.pc = m.prog.Entry
	m.steps = 0
	m.halted = false
}

// Run steps until the program exits, falls off the end of its text or
// fails.
func (m *Machine) Run() error {
	for !m.halted {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Halted reports whether the program has exited.
func (m *Machine) Halted() bool { return m.halted }

// Steps is the number of instructions executed since the last Reset.
func (m *Machine) Steps() int { return m.steps }

// Register returns the value of a register by name, e.g. "$v0".
func (m *Machine) Register(name string) (int32, bool) {
	r, ok := registers[name]
	if !ok {
		return 0, false
	}
	return m.regs[r], true
}

// Step executes one instruction.
func (m *Machine) Step() error {
	if m.halted {
		return nil
	}
	if m.pc < 0 || m.pc >= len(m.prog.Instructions) {
		m.halted = true
		return nil
	}
	m.steps++
	if m.MaxSteps > 0 && m.steps > m.MaxSteps {
		return diag.Runtimef(diag.Position{}, "machine step limit of %d exceeded", m.MaxSteps)
	}

	in := m.prog.Instructions[m.pc]
	next := m.pc + 1
	rt := func() int32 {
		if in.UseImm {
			return in.Imm
		}
		return m.regs[in.Rt]
	}

	switch in.Op {
	case OpLI:
		m.set(in.Rd, in.Imm)
	case OpLW:
		addr, err := m.address(in)
		if err != nil {
			return err
		}
		m.set(in.Rt, m.mem[addr])
	case OpSW:
		addr, err := m.address(in)
		if err != nil {
			return err
		}
		m.mem[addr] = m.regs[in.Rt]
	case OpMOVE:
		m.set(in.Rd, m.regs[in.Rs])
	case OpADDU:
		m.set(in.Rd, m.regs[in.Rs]+rt())
	case OpSUBU:
		m.set(in.Rd, m.regs[in.Rs]-rt())
	case OpMUL:
		m.set(in.Rd, m.regs[in.Rs]*m.regs[in.Rt])
	case OpDIV:
		if m.regs[in.Rt] == 0 {
			return m.fault(in, "division by zero")
		}
		m.set(in.Rd, m.regs[in.Rs]/m.regs[in.Rt])
	case OpDIVR:
		if m.regs[in.Rt] == 0 {
			return m.fault(in, "division by zero")
		}
		m.lo, m.hi = m.regs[in.Rs]/m.regs[in.Rt], m.regs[in.Rs]%m.regs[in.Rt]
	case OpMFHI:
		m.set(in.Rd, m.hi)
	case OpMFLO:
		m.set(in.Rd, m.lo)
	case OpSEQ:
		m.set(in.Rd, b2i(m.regs[in.Rs] == rt()))
	case OpSNE:
		m.set(in.Rd, b2i(m.regs[in.Rs] != rt()))
	case OpSLT:
		m.set(in.Rd, b2i(m.regs[in.Rs] < rt()))
	case OpSGT:
		m.set(in.Rd, b2i(m.regs[in.Rs] > rt()))
	case OpSLE:
		m.set(in.Rd, b2i(m.regs[in.Rs] <= rt()))
	case OpSGE:
		m.set(in.Rd, b2i(m.regs[in.Rs] >= rt()))
	case OpAND:
		m.set(in.Rd, m.regs[in.Rs]&m.regs[in.Rt])
	case OpOR:
		m.set(in.Rd, m.regs[in.Rs]|m.regs[in.Rt])
	case OpBEQZ:
		if m.regs[in.Rs] == 0 {
			next = in.Target
		}
	case OpBNEZ:
		if m.regs[in.Rs] != 0 {
			next = in.Target
		}
	case OpJ:
		next = in.Target
	case OpJAL:
		m.set(regRA, int32(next))
		next = in.Target
	case OpJR:
		next = int(m.regs[in.Rs])
	case OpSYSCALL:
		if err := m.syscall(in); err != nil {
			return err
		}
	default:
		return m.fault(in, "unknown opcode")
	}

	m.pc = next
	return nil
}

func (m *Machine) syscall(in Instruction) error {
	switch code := m.regs[regV0]; code {
	case 1:
		if _, err := io.WriteString(m.Out, strconv.FormatInt(int64(m.regs[regA0]), 10)); err != nil {
			return errors.Wrap(err, "write output")
		}
	case 11:
		if _, err := m.Out.Write([]byte{byte(m.regs[regA0])}); err != nil {
			return errors.Wrap(err, "write output")
		}
	case 5:
		if m.In == nil {
			return m.fault(in, "read int: no input")
		}
		v, err := m.In.ReadInt()
		if errors.Cause(err) == io.EOF {
			return m.fault(in, "read int: unexpected end of input")
		}
		if err != nil {
			return m.fault(in, "read int: "+err.Error())
		}
		m.set(regV0, int32(v))
	case 10:
		m.halted = true
	default:
		return m.fault(in, "unknown syscall "+strconv.Itoa(int(code)))
	}
	return nil
}

// set writes a register. $zero stays zero.
func (m *Machine) set(r int, v int32) {
	if r != regZero {
		m.regs[r] = v
	}
}

func (m *Machine) address(in Instruction) (uint32, error) {
	addr := uint32(m.regs[in.Rs] + in.Imm)
	if addr%4 != 0 {
		return 0, m.fault(in, "unaligned address 0x"+strconv.FormatUint(uint64(addr), 16))
	}
	return addr, nil
}

func (m *Machine) fault(in Instruction, msg string) error {
	return diag.Runtimef(diag.Position{}, "%s at assembly line %d (%s)", msg, in.Line, in.Text)
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Execute assembles text and runs it to completion.
func Execute(text string, in io.Reader, out io.Writer, maxSteps int) error {
	prog, err := Assemble(text)
	if err != nil {
		return errors.Wrap(err, "assemble")
	}
	m := New(prog, in, out)
	m.MaxSteps = maxSteps
	return m.Run()
}
