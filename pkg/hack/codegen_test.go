package hack_test

import (
	"fmt"
	"testing"

	"nand2tetris.dev/toolchain/pkg/hack"
)

func TestGenerateAInst(t *testing.T) {
	// Instantiate a basic simple table with some entries and shared codegen for every test case
	table := hack.SymbolTable{"Test1": 0, "Test2": 67, "hmny": 9393, "n2t": 754, "JUMP": 90}
	codegen := hack.NewCodeGenerator(hack.Program{}, table)

	test := func(inst hack.AInstruction, expected string, fail bool) {
		res, err := codegen.GenerateAInst(inst)
		if !fail && res != expected {
			t.Errorf("GenerateAInst(%+v) = %q, want %q", inst, res, expected)
		}
		if fail && err == nil {
			t.Errorf("GenerateAInst(%+v) = %q, want error", inst, res)
		}
	}

	t.Run("Raw memory access", func(t *testing.T) {
		// This A Instruction reference correct raw location/address, to be correct a raw address
		// must be strictly below 2^15, since only 15 bits are available to index the Hack memory.
		test(hack.AInstruction{LocType: hack.Raw, LocName: "38"}, fmt.Sprintf("%016b", 38), false)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "42"}, fmt.Sprintf("%016b", 42), false)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "64"}, fmt.Sprintf("%016b", 64), false)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "128"}, fmt.Sprintf("%016b", 128), false)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "32767"}, fmt.Sprintf("%016b", 32767), false)
		// This are just some example of invalid (Out of Bounds) address that shouldn't be translated.
		test(hack.AInstruction{LocType: hack.Raw, LocName: "32768"}, "", true)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "65538"}, "", true)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "66500"}, "", true)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "70000"}, "", true)
	})

	t.Run("Hack built-in labels", func(t *testing.T) {
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "SP"}, fmt.Sprintf("%016b", 0), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "LCL"}, fmt.Sprintf("%016b", 1), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "ARG"}, fmt.Sprintf("%016b", 2), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "THIS"}, fmt.Sprintf("%016b", 3), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "THAT"}, fmt.Sprintf("%016b", 4), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "R0"}, fmt.Sprintf("%016b", 0), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "R13"}, fmt.Sprintf("%016b", 13), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "R15"}, fmt.Sprintf("%016b", 15), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "KBD"}, fmt.Sprintf("%016b", 24576), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "SCREEN"}, fmt.Sprintf("%016b", 16384), false)
	})

	t.Run("User-defined labels", func(t *testing.T) {
		test(hack.AInstruction{LocType: hack.Label, LocName: "Test1"}, fmt.Sprintf("%016b", table["Test1"]), false)
		test(hack.AInstruction{LocType: hack.Label, LocName: "JUMP"}, fmt.Sprintf("%016b", table["JUMP"]), false)
	})

	t.Run("Unresolved labels are lazily allocated as variables", func(t *testing.T) {
		// A label not present in the table is treated as a fresh variable starting at address 16,
		// and every subsequent reference to the same name must resolve to the same address.
		first, err := codegen.GenerateAInst(hack.AInstruction{LocType: hack.Label, LocName: "counter"})
		if err != nil {
			t.Fatalf("unexpected error allocating new variable: %v", err)
		}
		if first != fmt.Sprintf("%016b", 16) {
			t.Errorf("first unseen variable should resolve to address 16, got %q", first)
		}
		second, err := codegen.GenerateAInst(hack.AInstruction{LocType: hack.Label, LocName: "counter"})
		if err != nil || second != first {
			t.Errorf("repeated reference to 'counter' should resolve to the same address, got %q, err %v", second, err)
		}
		other, err := codegen.GenerateAInst(hack.AInstruction{LocType: hack.Label, LocName: "total"})
		if err != nil || other != fmt.Sprintf("%016b", 17) {
			t.Errorf("second unseen variable should resolve to address 17, got %q, err %v", other, err)
		}
	})
}

func TestGenerateCInst(t *testing.T) {
	codegen := hack.NewCodeGenerator(hack.Program{}, hack.SymbolTable{})

	test := func(inst hack.CInstruction, expected string, fail bool) {
		res, err := codegen.GenerateCInst(inst)
		if !fail && res != expected {
			t.Errorf("GenerateCInst(%+v) = %q, want %q", inst, res, expected)
		}
		if fail && err == nil {
			t.Errorf("GenerateCInst(%+v) = %q, want error", inst, res)
		}
	}

	t.Run("Comps and Jumps", func(t *testing.T) {
		test(hack.CInstruction{Comp: "M", Jump: ""}, "1111110000000000", false)
		test(hack.CInstruction{Comp: "A", Jump: ""}, "1110110000000000", false)
		test(hack.CInstruction{Comp: "0", Jump: "JGT"}, "1110101010000001", false)
		test(hack.CInstruction{Comp: "1", Jump: "JEQ"}, "1110111111000010", false)
		test(hack.CInstruction{Comp: "-1", Jump: "JEQ"}, "1110111010000010", false)
		test(hack.CInstruction{Comp: "D", Jump: "JGE"}, "1110001100000011", false)
		test(hack.CInstruction{Comp: "!A", Jump: "JLT"}, "1110110001000100", false)
		test(hack.CInstruction{Comp: "!M", Jump: "JNE"}, "1111110001000101", false)
		test(hack.CInstruction{Comp: "D+1", Jump: "JMP"}, "1110011111000111", false)
	})

	t.Run("Comps and Dests", func(t *testing.T) {
		test(hack.CInstruction{Comp: "D+A", Dest: ""}, "1110000010000000", false)
		test(hack.CInstruction{Comp: "D-A", Dest: "M"}, "1110010011001000", false)
		test(hack.CInstruction{Comp: "A-D", Dest: "D"}, "1110000111010000", false)
		test(hack.CInstruction{Comp: "D&A", Dest: "A"}, "1110000000100000", false)
		test(hack.CInstruction{Comp: "D|A", Dest: "MD"}, "1110010101011000", false)
		test(hack.CInstruction{Comp: "M", Dest: "AM"}, "1111110000101000", false)
		test(hack.CInstruction{Comp: "0", Dest: "AD"}, "1110101010110000", false)
		test(hack.CInstruction{Comp: "-1", Dest: "AMD"}, "1110111010111000", false)
		// 'DM' and 'MD' are the same destination pair, both must encode identically.
		test(hack.CInstruction{Comp: "M+1", Dest: "DM"}, "1111110111011000", false)
		test(hack.CInstruction{Comp: "M+1", Dest: "MD"}, "1111110111011000", false)
	})

	t.Run("Comp, Dest and Jump together", func(t *testing.T) {
		test(hack.CInstruction{Comp: "M-1", Dest: "MD", Jump: "JGT"}, "1111110010011001", false)
	})

	t.Run("Missing or unknown comp is an error", func(t *testing.T) {
		test(hack.CInstruction{Comp: "", Dest: "D"}, "", true)
		test(hack.CInstruction{Comp: "D+D+D", Dest: "D"}, "", true)
	})
}
