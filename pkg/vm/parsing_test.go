package vm_test

import (
	"strings"
	"testing"

	"nand2tetris.dev/toolchain/pkg/vm"
)

func TestParseModule(t *testing.T) {
	source := `
// push two constants and add them
push constant 7
push constant 8
add
pop local 0
label LOOP
push argument 0
if-goto LOOP
function Main.main 1
call Math.sqrt 1
return
`
	parser := vm.NewParser(strings.NewReader(source))
	module, err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() returned unexpected error: %v", err)
	}

	want := []vm.Operation{
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 7},
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 8},
		vm.ArithmeticOp{Operation: vm.Add},
		vm.MemoryOp{Operation: vm.Pop, Segment: vm.Local, Offset: 0},
		vm.LabelDecl{Name: "LOOP"},
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Argument, Offset: 0},
		vm.GotoOp{Jump: vm.IfGoto, Label: "LOOP"},
		vm.FuncDecl{Name: "Main.main", NLocals: 1},
		vm.FuncCallOp{Name: "Math.sqrt", NArgs: 1},
		vm.ReturnOp{},
	}

	if len(module) != len(want) {
		t.Fatalf("Parse() = %d operations, want %d: %+v", len(module), len(want), module)
	}
	for i := range want {
		if module[i] != want[i] {
			t.Errorf("Parse() operation %d = %+v, want %+v", i, module[i], want[i])
		}
	}
}

func TestParseErrorReportsLine(t *testing.T) {
	parser := vm.NewParser(strings.NewReader("push constant 1\npush wat 0\nadd\n"))
	_, err := parser.Parse()
	if err == nil {
		t.Fatal("expected a parse error for an unknown segment name")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected the diagnostic to name line 2, got %q", err.Error())
	}
}
