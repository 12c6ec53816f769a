package asm_test

import (
	"strings"
	"testing"

	"nand2tetris.dev/toolchain/pkg/asm"
)

func TestParseProgram(t *testing.T) {
	test := func(source string, expected asm.Program) {
		parser := asm.NewParser(strings.NewReader(source))
		program, err := parser.Parse()
		if err != nil {
			t.Fatalf("Parse(%q) returned unexpected error: %v", source, err)
		}
		if len(program) != len(expected) {
			t.Fatalf("Parse(%q) = %d statements, want %d: %+v", source, len(program), len(expected), program)
		}
		for i := range expected {
			if program[i] != expected[i] {
				t.Errorf("Parse(%q) statement %d = %+v, want %+v", source, i, program[i], expected[i])
			}
		}
	}

	t.Run("A instructions", func(t *testing.T) {
		test("@2\n@sum\n@SCREEN\n", asm.Program{
			asm.AInstruction{Location: "2"},
			asm.AInstruction{Location: "sum"},
			asm.AInstruction{Location: "SCREEN"},
		})
	})

	t.Run("C instructions with dest and jump", func(t *testing.T) {
		test("D=M\nAMD=D+1\n0;JMP\nD;JGT\n", asm.Program{
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "AMD", Comp: "D+1"},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
			asm.CInstruction{Comp: "D", Jump: "JGT"},
		})
	})

	t.Run("C instruction with both dest and jump", func(t *testing.T) {
		test("MD=M-1;JGT\n", asm.Program{
			asm.CInstruction{Dest: "MD", Comp: "M-1", Jump: "JGT"},
		})
	})

	t.Run("DM spelling of the MD destination", func(t *testing.T) {
		test("DM=M+1\n", asm.Program{
			asm.CInstruction{Dest: "DM", Comp: "M+1"},
		})
	})

	t.Run("Label declarations", func(t *testing.T) {
		test("(LOOP)\n@LOOP\n0;JMP\n", asm.Program{
			asm.LabelDecl{Name: "LOOP"},
			asm.AInstruction{Location: "LOOP"},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		})
	})

	t.Run("Comments are skipped", func(t *testing.T) {
		test("// bootstrap\n@256\nD=A // set stack pointer\n", asm.Program{
			asm.AInstruction{Location: "256"},
			asm.CInstruction{Dest: "D", Comp: "A"},
		})
	})
}

func TestParseErrorReportsLine(t *testing.T) {
	parser := asm.NewParser(strings.NewReader("@256\nD=A\nWAT?!\n0;JMP\n"))
	_, err := parser.Parse()
	if err == nil {
		t.Fatal("expected a parse error for an unknown mnemonic")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected the diagnostic to name line 3, got %q", err.Error())
	}
}

func TestLowerProgram(t *testing.T) {
	program := asm.Program{
		asm.AInstruction{Location: "16384"},
		asm.LabelDecl{Name: "LOOP"},
		asm.AInstruction{Location: "SCREEN"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LOOP"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}

	lowerer := asm.NewLowerer(program)
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("Lower() returned unexpected error: %v", err)
	}
	// The label declaration is stripped out, leaving 5 real instructions.
	if len(hackProgram) != 5 {
		t.Fatalf("Lower() produced %d instructions, want 5", len(hackProgram))
	}
	// 'LOOP' was declared right after the first instruction, so it must resolve to index 1.
	if addr, found := table["LOOP"]; !found || addr != 1 {
		t.Errorf("Lower() resolved 'LOOP' to %d (found=%v), want 1", addr, found)
	}
}

func TestLowerRejectsOutOfBoundRawAddress(t *testing.T) {
	// A leading-digit location can only be a raw address: one too big for the 15
	// addressing bits must be an error, not get allocated as a fresh variable.
	lowerer := asm.NewLowerer(asm.Program{asm.AInstruction{Location: "32768"}})
	if _, _, err := lowerer.Lower(); err == nil {
		t.Error("expected an error for the out-of-bound raw address '32768'")
	}
}
