package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teris-io/cli"
	"nand2tetris.dev/toolchain/pkg/asm"
	"nand2tetris.dev/toolchain/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode'like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	WithArg(cli.NewArg("input", "The .vm file or directory of .vm files to be translated")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	inputs, stem, err := resolveInputs(args[0])
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	// Allocates a 'vm.Program' keyed by namespace to save every parsed translation unit
	// (one per .vm file), so the Translator can later resolve 'static' segments.
	program := vm.Program{}

	for _, input := range inputs {
		content, err := os.ReadFile(input)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		namespace := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		parser := vm.NewParser(bytes.NewReader(content))
		program[namespace], err = parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
			return -1
		}
	}

	// Translates the whole Program to its Asm counterpart. Bootstrap and the infinite-loop
	// epilogue are always emitted, the calling convention is mandatory, not opt-in.
	translator := vm.NewTranslator()
	asmProgram, err := translator.Translate(program)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'translation' pass: %s\n", err)
		return -1
	}

	codegen := asm.NewCodeGenerator(asmProgram)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	output, err := os.Create(stem + ".asm")
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	for _, line := range compiled {
		fmt.Fprintf(output, "%s\n", line)
	}

	return 0
}

// Resolves the CLI's single positional argument to the ordered list of .vm files to
// translate, plus the stem the output .asm file should be written next to. A directory is
// globbed non-recursively and sorted by name, so translation order is fully deterministic.
func resolveInputs(input string) ([]string, string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, "", fmt.Errorf("unable to stat input path: %s", err)
	}

	if !info.IsDir() {
		stem := strings.TrimSuffix(input, filepath.Ext(input))
		return []string{input}, stem, nil
	}

	matches, err := filepath.Glob(filepath.Join(input, "*.vm"))
	if err != nil {
		return nil, "", fmt.Errorf("unable to glob '*.vm' files: %s", err)
	}
	if len(matches) == 0 {
		return nil, "", fmt.Errorf("no '.vm' files found in directory '%s'", input)
	}
	sort.Strings(matches)

	stem := filepath.Join(input, filepath.Base(filepath.Clean(input)))
	return matches, stem, nil
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
