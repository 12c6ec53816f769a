package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJackAnalyzerSingleFile(t *testing.T) {
	dir := t.TempDir()
	source := "class Main {\n  function void main() {\n    do Output.printInt(1);\n    return;\n  }\n}\n"
	input := filepath.Join(dir, "Main.jack")
	if err := os.WriteFile(input, []byte(source), 0644); err != nil {
		t.Fatalf("failed to write input fixture: %v", err)
	}

	if status := Handler([]string{input}, nil); status != 0 {
		t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
	}

	xml, err := os.ReadFile(filepath.Join(dir, "Main.xml"))
	if err != nil {
		t.Fatalf("expected a 'Main.xml' next to the input: %v", err)
	}
	if !strings.Contains(string(xml), "<class>") {
		t.Error("expected the output to contain a <class> root element")
	}
	if !strings.Contains(string(xml), "<keyword> do </keyword>") {
		t.Error("expected the output to contain the do-statement keyword")
	}
}

func TestJackAnalyzerDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"Main.jack": "class Main {\n  function void main() {\n    return;\n  }\n}\n",
		"Util.jack": "class Util {\n  function int id(int x) {\n    return x;\n  }\n}\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write fixture %s: %v", name, err)
		}
	}

	if status := Handler([]string{dir}, nil); status != 0 {
		t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
	}

	for _, stem := range []string{"Main", "Util"} {
		if _, err := os.Stat(filepath.Join(dir, stem+".xml")); err != nil {
			t.Errorf("expected %s.xml to be written: %v", stem, err)
		}
	}
}

func TestJackAnalyzerMissingInput(t *testing.T) {
	status := Handler([]string{filepath.Join(t.TempDir(), "missing.jack")}, nil)
	if status == 0 {
		t.Fatal("expected a non-zero exit status for a missing input path")
	}
}

func TestJackAnalyzerSyntaxErrorReportsNonZeroStatus(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Broken.jack")
	if err := os.WriteFile(input, []byte("class Broken {\n"), 0644); err != nil {
		t.Fatalf("failed to write input fixture: %v", err)
	}

	status := Handler([]string{input}, nil)
	if status == 0 {
		t.Fatal("expected a non-zero exit status for a syntax error")
	}
}
