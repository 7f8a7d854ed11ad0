// Package engine evaluates scene scripts: a small Lisp DSL for
// describing synthetic assemblies. It wraps zygomys in a sandboxed
// environment and produces an Assembly from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/abut/pkg/assembly"
	"github.com/chazu/abut/pkg/kernel"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for scene evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	k          kernel.Kernel
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates an engine that builds solids with the given kernel.
func NewEngine(k kernel.Kernel) *Engine {
	return &Engine{k: k}
}

// Evaluate takes scene source code and produces a new Assembly.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns assembly + nil errors + nil error
//   - On parse/eval failure: returns nil assembly + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*assembly.Assembly, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		asm, evalErrs, err := e.evaluate(source)
		ch <- evalResult{asm: asm, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*assembly.Assembly, []EvalError, error) {
	// Empty source is a valid program that produces an empty assembly.
	if strings.TrimSpace(source) == "" {
		asm, err := assembly.New(nil, nil)
		return asm, nil, err
	}

	// Create a fresh sandboxed zygomys environment.
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	sc := newScene(e.k)
	registerBuiltins(env, sc)

	// Load and compile the source string into bytecode.
	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	// Execute the compiled bytecode.
	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	asm, err := sc.build()
	if err != nil {
		return nil, nil, err
	}
	return asm, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{
			Line:    line,
			Message: strings.TrimSpace(m[2]),
		}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{
			Line:    line,
			Message: strings.TrimSpace(m[2]),
		}}
	}

	// Fallback: no line info available.
	return []EvalError{{
		Message: strings.TrimSpace(msg),
	}}
}

// scene accumulates the parts defined during one evaluation, in
// definition order.
type scene struct {
	k      kernel.Kernel
	names  []string
	solids []kernel.Solid
	index  map[string]int
}

func newScene(k kernel.Kernel) *scene {
	return &scene{k: k, index: make(map[string]int)}
}

func (s *scene) define(name string, solid kernel.Solid) (int, error) {
	if _, exists := s.index[name]; exists {
		return 0, fmt.Errorf("part %q already defined", name)
	}
	s.names = append(s.names, name)
	s.solids = append(s.solids, solid)
	i := len(s.names) - 1
	s.index[name] = i
	return i, nil
}

func (s *scene) lookup(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

func (s *scene) build() (*assembly.Assembly, error) {
	return assembly.New(s.names, s.solids)
}
