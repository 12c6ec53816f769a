package jack_test

import (
	"testing"

	"nand2tetris.dev/toolchain/pkg/jack"
)

func TestTokenizer(t *testing.T) {
	t.Run("class header", func(t *testing.T) {
		tok, err := jack.NewTokenizer("class Foo {\n  field int x;\n}\n")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []jack.Token{
			{Type: jack.KeywordTok, Value: "class", Line: 1},
			{Type: jack.IdentifierTok, Value: "Foo", Line: 1},
			{Type: jack.SymbolTok, Value: "{", Line: 1},
			{Type: jack.KeywordTok, Value: "field", Line: 2},
			{Type: jack.KeywordTok, Value: "int", Line: 2},
			{Type: jack.IdentifierTok, Value: "x", Line: 2},
			{Type: jack.SymbolTok, Value: ";", Line: 2},
			{Type: jack.SymbolTok, Value: "}", Line: 3},
		}

		for i, expected := range want {
			curr := tok.Curr()
			if curr == nil {
				t.Fatalf("token %d: expected %+v, got end of input", i, expected)
			}
			if *curr != expected {
				t.Errorf("token %d: expected %+v, got %+v", i, expected, *curr)
			}
			if err := tok.Advance(); err != nil {
				t.Fatalf("token %d: unexpected Advance error: %v", i, err)
			}
		}
		if tok.Curr() != nil {
			t.Errorf("expected end of input, got %+v", tok.Curr())
		}
	})

	t.Run("curr and peek are both seeded before the first Advance", func(t *testing.T) {
		tok, err := jack.NewTokenizer("do foo();")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Curr() == nil || tok.Curr().Value != "do" {
			t.Fatalf("expected Curr to be seeded to 'do', got %+v", tok.Curr())
		}
		if tok.Peek() == nil || tok.Peek().Value != "foo" {
			t.Fatalf("expected Peek to be seeded to 'foo', got %+v", tok.Peek())
		}
	})

	t.Run("strips line comments", func(t *testing.T) {
		tok, err := jack.NewTokenizer("let x = 1; // trailing comment\nlet y = 2;")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Curr().Value != "let" {
			t.Fatalf("expected 'let', got %q", tok.Curr().Value)
		}
		// Skip 'let x = 1 ;': the next token must be the second 'let', the comment yields none.
		for i := 0; i < 5; i++ {
			if err := tok.Advance(); err != nil {
				t.Fatalf("unexpected Advance error: %v", err)
			}
		}
		if tok.Curr() == nil || tok.Curr().Value != "let" || tok.Curr().Line != 2 {
			t.Fatalf("expected 'let' at line 2 after the comment, got %+v", tok.Curr())
		}
	})

	t.Run("strips multi-line block and doc comments", func(t *testing.T) {
		source := "/** A doc comment\n * spanning lines\n */\nclass Foo {\n/* inline */ field int x;\n}"
		tok, err := jack.NewTokenizer(source)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Curr().Value != "class" || tok.Curr().Line != 4 {
			t.Fatalf("expected 'class' at line 4, got %q at line %d", tok.Curr().Value, tok.Curr().Line)
		}
	})

	t.Run("string constant strips surrounding quotes", func(t *testing.T) {
		tok, err := jack.NewTokenizer(`"hello world"`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Curr().Type != jack.StringConstTok || tok.Curr().Value != "hello world" {
			t.Fatalf("expected stringConstant 'hello world', got %+v", tok.Curr())
		}
	})

	t.Run("integer constant within range", func(t *testing.T) {
		tok, err := jack.NewTokenizer("32767")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Curr().Type != jack.IntConstTok || tok.Curr().Value != "32767" {
			t.Fatalf("expected integerConstant 32767, got %+v", tok.Curr())
		}
	})

	t.Run("integer constant overflow is a lexical error with the line", func(t *testing.T) {
		_, err := jack.NewTokenizer("\n\n32768")
		if err == nil {
			t.Fatal("expected an error for an overlong integer constant")
		}
		lexErr, ok := err.(*jack.LexError)
		if !ok {
			t.Fatalf("expected a *jack.LexError, got %T", err)
		}
		if lexErr.Line != 3 {
			t.Errorf("expected the error on line 3, got %d", lexErr.Line)
		}
	})

	t.Run("unrecognized character is a lexical error", func(t *testing.T) {
		_, err := jack.NewTokenizer("@ x")
		if err == nil {
			t.Fatal("expected an error for an unrecognized character")
		}
		if _, ok := err.(*jack.LexError); !ok {
			t.Fatalf("expected a *jack.LexError, got %T", err)
		}
	})
}
