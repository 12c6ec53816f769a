package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVMTranslatorSingleFile(t *testing.T) {
	dir := t.TempDir()
	source := "push constant 7\npush constant 8\nadd\n"
	input := filepath.Join(dir, "SimpleAdd.vm")
	if err := os.WriteFile(input, []byte(source), 0644); err != nil {
		t.Fatalf("failed to write input fixture: %v", err)
	}

	if status := Handler([]string{input}, nil); status != 0 {
		t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
	}

	compiled, err := os.ReadFile(filepath.Join(dir, "SimpleAdd.asm"))
	if err != nil {
		t.Fatalf("expected an 'SimpleAdd.asm' next to the input: %v", err)
	}
	if !strings.Contains(string(compiled), "INFINITE_LOOP") {
		t.Error("expected the compiled output to include the mandatory epilogue")
	}
}

func TestVMTranslatorDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"Sys.vm":  "function Sys.init 0\ncall Main.main 0\npop temp 0\nreturn\n",
		"Main.vm": "function Main.main 0\npush constant 1\nreturn\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write fixture %s: %v", name, err)
		}
	}

	if status := Handler([]string{dir}, nil); status != 0 {
		t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
	}

	expected := filepath.Join(dir, filepath.Base(dir)+".asm")
	compiled, err := os.ReadFile(expected)
	if err != nil {
		t.Fatalf("expected compiled output at %s: %v", expected, err)
	}
	if !strings.Contains(string(compiled), "Main.main") {
		t.Error("expected the compiled output to reference 'Main.main'")
	}
}

func TestVMTranslatorMissingDirectory(t *testing.T) {
	status := Handler([]string{filepath.Join(t.TempDir(), "missing")}, nil)
	if status == 0 {
		t.Fatal("expected a non-zero exit status for a missing input path")
	}
}
