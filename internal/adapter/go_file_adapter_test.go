package adapter

import (
	"context"
	"go/token"
	"testing"
)

const calcSource = `package calc

// Add sums two numbers.
func Add(a, b int) int {
	return a + b
}

var scale = 2

func (c *Counter) Inc() {
	c.n++
}

type Counter struct{ n int }
`

func TestLocalGoFileAdapter_Parse(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	file, err := adapter.Parse(context.Background(), fset, "calc.go", []byte(calcSource))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if file.Name.Name != "calc" {
		t.Fatalf("Parse() package = %s, want calc", file.Name.Name)
	}

	if len(file.Comments) == 0 {
		t.Fatalf("Parse() dropped comments")
	}
}

func TestLocalGoFileAdapter_Parse_InvalidSource(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	if _, err := adapter.Parse(context.Background(), fset, "broken.go", []byte("package foo\n func")); err == nil {
		t.Fatalf("Parse() expected error for invalid source")
	}
}

func TestLocalGoFileAdapter_Parse_ContextCancellation(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	if _, err := adapter.Parse(ctx, fset, "example.go", []byte("package main\n func main() {}")); err == nil {
		t.Fatalf("Parse() expected error due to context cancellation")
	}
}

func TestLocalGoFileAdapter_FunctionAt(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	file, err := adapter.Parse(context.Background(), fset, "calc.go", []byte(calcSource))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		line int
		want string
	}{
		{line: 1, want: ""},
		{line: 4, want: "Add"},
		{line: 5, want: "Add"},
		{line: 6, want: "Add"},
		{line: 8, want: ""},
		{line: 11, want: "Inc"},
		{line: 14, want: ""},
	}

	for _, tt := range tests {
		if got := adapter.FunctionAt(fset, file, tt.line); got != tt.want {
			t.Errorf("FunctionAt(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestLocalGoFileAdapter_IsGenerated(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()
	ctx := context.Background()

	generated, err := adapter.Parse(ctx, fset, "gen.go", []byte("// Code generated by stringer. DO NOT EDIT.\n\npackage calc\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !adapter.IsGenerated(generated) {
		t.Fatalf("IsGenerated() = false for generated file")
	}

	plain, err := adapter.Parse(ctx, fset, "calc.go", []byte(calcSource))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if adapter.IsGenerated(plain) {
		t.Fatalf("IsGenerated() = true for handwritten file")
	}
}
