package mips

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Opcode identifies a machine instruction.
type Opcode int

const (
	OpLI Opcode = iota
	OpLW
	OpSW
	OpMOVE
	OpADDU
	OpSUBU
	OpMUL
	OpDIV  // three operands: rd = rs / rt
	OpDIVR // two operands: lo = rs / rt, hi = rs % rt
	OpMFHI
	OpMFLO
	OpSEQ
	OpSNE
	OpSLT
	OpSGT
	OpSLE
	OpSGE
	OpAND
	OpOR
	OpBEQZ
	OpBNEZ
	OpJ
	OpJAL
	OpJR
	OpSYSCALL
)

// Instruction is one decoded line. Registers are indexes into the register
// file; Imm holds an immediate or a memory offset; Target is an
// instruction index.
type Instruction struct {
	Op     Opcode
	Rd     int
	Rs     int
	Rt     int
	Imm    int32
	UseImm bool // the last operand was an immediate
	Target int
	Line   int // source line, 1-based
	Text   string
}

// Program is assembled text ready to run.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int // label -> instruction index
	Entry        int
}

// Register numbers. Only the conventional names are accepted.
var registers = map[string]int{
	"$zero": 0, "$at": 1, "$v0": 2, "$v1": 3,
	"$a0": 4, "$a1": 5, "$a2": 6, "$a3": 7,
	"$t0": 8, "$t1": 9, "$t2": 10, "$t3": 11, "$t4": 12, "$t5": 13, "$t6": 14, "$t7": 15,
	"$s0": 16, "$s1": 17, "$s2": 18, "$s3": 19, "$s4": 20, "$s5": 21, "$s6": 22, "$s7": 23,
	"$t8": 24, "$t9": 25, "$gp": 28, "$sp": 29, "$fp": 30, "$ra": 31,
}

const (
	regZero = 0
	regV0   = 2
	regA0   = 4
	regSP   = 29
	regRA   = 31
)

var setOps = map[string]Opcode{
	"addu": OpADDU, "subu": OpSUBU,
	"seq": OpSEQ, "sne": OpSNE, "slt": OpSLT, "sgt": OpSGT, "sle": OpSLE, "sge": OpSGE,
}

var registerOps = map[string]Opcode{
	"mul": OpMUL, "and": OpAND, "or": OpOR,
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
	text     string
}

// Assemble resolves labels in a first pass and decodes instructions in a
// second. Execution starts at the label main.
func Assemble(code string) (*Program, error) {
	lines := strings.Split(code, "\n")
	parsed := make([]parsedLine, 0, len(lines))

	labels := make(map[string]int)
	index := 0
	for i, raw := range lines {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		for _, lbl := range p.labels {
			if _, exists := labels[lbl]; exists {
				return nil, errors.Errorf("duplicate label %q on line %d", lbl, p.lineNo)
			}
			labels[lbl] = index
		}
		if p.mnemonic == "" || strings.HasPrefix(p.mnemonic, ".") {
			if err := checkDirective(p); err != nil {
				return nil, err
			}
			continue
		}
		parsed = append(parsed, p)
		index++
	}

	prog := &Program{Labels: labels}
	for _, p := range parsed {
		instr, err := decode(p, labels)
		if err != nil {
			return nil, err
		}
		prog.Instructions = append(prog.Instructions, instr)
	}

	entry, ok := labels["main"]
	if !ok {
		return nil, errors.New("no main label")
	}
	prog.Entry = entry
	return prog, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}
	line := raw
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	p.text = line

	for {
		i := strings.IndexByte(line, ':')
		if i < 0 {
			break
		}
		lbl := strings.TrimSpace(line[:i])
		if !validLabel(lbl) {
			return p, errors.Errorf("invalid label %q on line %d", lbl, lineNo)
		}
		p.labels = append(p.labels, lbl)
		line = strings.TrimSpace(line[i+1:])
	}

	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) == 0 {
		return p, nil
	}
	p.mnemonic = strings.ToLower(fields[0])
	p.operands = fields[1:]
	return p, nil
}

func validLabel(lbl string) bool {
	if lbl == "" {
		return false
	}
	for i, r := range lbl {
		switch {
		case r == '_' || r == '.' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return true
}

func checkDirective(p parsedLine) error {
	switch p.mnemonic {
	case "", ".text":
		return nil
	case ".globl":
		if len(p.operands) != 1 {
			return errors.Errorf(".globl expects one symbol on line %d", p.lineNo)
		}
		return nil
	}
	return errors.Errorf("unsupported directive %s on line %d", p.mnemonic, p.lineNo)
}

func decode(p parsedLine, labels map[string]int) (Instruction, error) {
	in := Instruction{Line: p.lineNo, Text: p.text}
	ops := p.operands
	var err error

	want := func(n int) error {
		if len(ops) != n {
			return errors.Errorf("%s expects %d operand(s) on line %d, got %d", p.mnemonic, n, p.lineNo, len(ops))
		}
		return nil
	}
	reg := func(s string) int {
		if err != nil {
			return 0
		}
		r, ok := registers[s]
		if !ok {
			err = errors.Errorf("unknown register %q on line %d", s, p.lineNo)
		}
		return r
	}
	imm := func(s string) int32 {
		if err != nil {
			return 0
		}
		v, perr := strconv.ParseInt(s, 0, 32)
		if perr != nil {
			err = errors.Errorf("invalid immediate %q on line %d", s, p.lineNo)
		}
		return int32(v)
	}
	target := func(s string) int {
		if err != nil {
			return 0
		}
		t, ok := labels[s]
		if !ok {
			err = errors.Errorf("undefined label %q on line %d", s, p.lineNo)
		}
		return t
	}
	// memory operands look like off($reg) or ($reg)
	mem := func(s string) (int32, int) {
		open, end := strings.IndexByte(s, '('), strings.IndexByte(s, ')')
		if open < 0 || end != len(s)-1 || end < open {
			if err == nil {
				err = errors.Errorf("invalid memory operand %q on line %d", s, p.lineNo)
			}
			return 0, 0
		}
		var off int32
		if open > 0 {
			off = imm(s[:open])
		}
		return off, reg(s[open+1 : end])
	}
	// the last operand of addu, subu and the set instructions may be an
	// immediate
	regOrImm := func(s string) {
		if strings.HasPrefix(s, "$") {
			in.Rt = reg(s)
			return
		}
		in.Imm = imm(s)
		in.UseImm = true
	}

	m := p.mnemonic
	setOp, isSet := setOps[m]
	regOp, isReg := registerOps[m]

	switch {
	case m == "li":
		if err = want(2); err == nil {
			in.Op, in.Rd, in.Imm = OpLI, reg(ops[0]), imm(ops[1])
		}
	case m == "lw" || m == "sw":
		if err = want(2); err == nil {
			in.Op = OpLW
			if m == "sw" {
				in.Op = OpSW
			}
			in.Rt = reg(ops[0])
			in.Imm, in.Rs = mem(ops[1])
		}
	case m == "move":
		if err = want(2); err == nil {
			in.Op, in.Rd, in.Rs = OpMOVE, reg(ops[0]), reg(ops[1])
		}
	case isSet:
		if err = want(3); err == nil {
			in.Op, in.Rd, in.Rs = setOp, reg(ops[0]), reg(ops[1])
			regOrImm(ops[2])
		}
	case isReg:
		if err = want(3); err == nil {
			in.Op, in.Rd, in.Rs, in.Rt = regOp, reg(ops[0]), reg(ops[1]), reg(ops[2])
		}
	case m == "div":
		switch len(ops) {
		case 2:
			in.Op, in.Rs, in.Rt = OpDIVR, reg(ops[0]), reg(ops[1])
		case 3:
			in.Op, in.Rd, in.Rs, in.Rt = OpDIV, reg(ops[0]), reg(ops[1]), reg(ops[2])
		default:
			err = errors.Errorf("div expects 2 or 3 operands on line %d, got %d", p.lineNo, len(ops))
		}
	case m == "mfhi" || m == "mflo":
		if err = want(1); err == nil {
			in.Op, in.Rd = OpMFHI, reg(ops[0])
			if m == "mflo" {
				in.Op = OpMFLO
			}
		}
	case m == "beqz" || m == "bnez":
		if err = want(2); err == nil {
			in.Op = OpBEQZ
			if m == "bnez" {
				in.Op = OpBNEZ
			}
			in.Rs, in.Target = reg(ops[0]), target(ops[1])
		}
	case m == "j" || m == "jal":
		if err = want(1); err == nil {
			in.Op = OpJ
			if m == "jal" {
				in.Op = OpJAL
			}
			in.Target = target(ops[0])
		}
	case m == "jr":
		if err = want(1); err == nil {
			in.Op, in.Rs = OpJR, reg(ops[0])
		}
	case m == "syscall":
		if err = want(0); err == nil {
			in.Op = OpSYSCALL
		}
	default:
		err = errors.Errorf("unknown instruction %q on line %d", m, p.lineNo)
	}
	return in, err
}
