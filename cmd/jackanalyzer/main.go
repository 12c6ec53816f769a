package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teris-io/cli"
	"nand2tetris.dev/toolchain/pkg/jack"
)

var Description = strings.ReplaceAll(`
The Jack Analyzer parses Jack source files into their parse tree and emits it in the
nand2tetris XML-like tree format. It stops at parsing: no semantic checking, no code
generation, one <stem>.xml written next to each input .jack file.
`, "\n", " ")

var JackAnalyzer = cli.New(Description).
	WithArg(cli.NewArg("input", "The .jack file or directory of .jack files to be analyzed")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	inputs, err := resolveInputs(args[0])
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	// Each parsed class is collected into a 'jack.Program' keyed by file namespace,
	// mirroring how the VM Translator accumulates its translation units.
	program := jack.Program{}

	for _, input := range inputs {
		namespace := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		tree, err := analyze(input)
		if err != nil {
			fmt.Printf("ERROR: %s: %s\n", input, err)
			return -1
		}
		program[namespace] = tree
	}

	return 0
}

func analyze(input string) (*jack.Node, error) {
	content, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("unable to open input file: %s", err)
	}

	parser, err := jack.NewParser(string(content))
	if err != nil {
		return nil, fmt.Errorf("unable to start 'parsing' pass: %s", err)
	}

	tree, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("unable to complete 'parsing' pass: %s", err)
	}

	stem := strings.TrimSuffix(input, filepath.Ext(input))
	output, err := os.Create(stem + ".xml")
	if err != nil {
		return nil, fmt.Errorf("unable to open output file: %s", err)
	}
	defer output.Close()

	if err := tree.WriteXML(output, 0); err != nil {
		return nil, fmt.Errorf("unable to write output file: %s", err)
	}
	return tree, nil
}

// Resolves the CLI's single positional argument to the ordered list of .jack files to
// analyze. A directory is globbed non-recursively and sorted by name, so analysis order
// is fully deterministic and mirrors cmd/vmtranslator's resolveInputs.
func resolveInputs(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("unable to stat input path: %s", err)
	}

	if !info.IsDir() {
		return []string{input}, nil
	}

	matches, err := filepath.Glob(filepath.Join(input, "*.jack"))
	if err != nil {
		return nil, fmt.Errorf("unable to glob '*.jack' files: %s", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no '.jack' files found in directory '%s'", input)
	}
	sort.Strings(matches)

	return matches, nil
}

func main() { os.Exit(JackAnalyzer.Run(os.Args, os.Stdout)) }
