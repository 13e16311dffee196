package grid

import (
	"fmt"
	"sync"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
	celgo "github.com/google/cel-go/cel"
)

// ProgramCache stores compiled rule programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is a concurrency safe ProgramCache.
type MemoryProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewProgramCache builds an empty MemoryProgramCache.
func NewProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{programs: map[string]any{}}
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	program, ok := c.programs[key]
	return program, ok
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs[key] = value
}

// Len returns the number of cached programs.
func (c *MemoryProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

// BlockMatch is what type matching rules see: block_type and
// rewriting_class.
type BlockMatch struct {
	BlockType      string
	RewritingClass string
}

func (m BlockMatch) env() map[string]any {
	return map[string]any{
		"block_type":      m.BlockType,
		"rewriting_class": m.RewritingClass,
	}
}

// RuleEngine evaluates boolean block matching rules.
type RuleEngine interface {
	Name() string
	Match(rule string, match BlockMatch) (bool, error)
}

// ExprEngine evaluates rules written for expr-lang/expr, e.g.
// `block_type startsWith "catalog/"`.
type ExprEngine struct {
	cache ProgramCache
}

// NewExprEngine builds an engine. A nil cache compiles on every call.
func NewExprEngine(cache ProgramCache) *ExprEngine {
	return &ExprEngine{cache: cache}
}

func (e *ExprEngine) Name() string { return "expr" }

func (e *ExprEngine) Match(rule string, match BlockMatch) (bool, error) {
	if rule == "" {
		return false, wrapRuleError(e.Name(), rule, fmt.Errorf("rule must not be empty"))
	}
	program, err := e.loadOrCompile(rule)
	if err != nil {
		return false, err
	}
	out, err := exprlang.Run(program, match.env())
	if err != nil {
		return false, wrapRuleError(e.Name(), rule, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, wrapRuleError(e.Name(), rule, fmt.Errorf("rule returned %T, want bool", out))
	}
	return matched, nil
}

func (e *ExprEngine) loadOrCompile(rule string) (*exprvm.Program, error) {
	key := e.Name() + ":" + rule
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	program, err := exprlang.Compile(rule,
		exprlang.Env(BlockMatch{}.env()),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, wrapRuleError(e.Name(), rule, err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

// CELEngine evaluates rules written in CEL, e.g.
// `block_type.startsWith("catalog/")`.
type CELEngine struct {
	cache ProgramCache
	env   *celgo.Env
}

// NewCELEngine builds an engine. A nil cache compiles on every call.
func NewCELEngine(cache ProgramCache) (*CELEngine, error) {
	env, err := celgo.NewEnv(
		celgo.Variable("block_type", celgo.StringType),
		celgo.Variable("rewriting_class", celgo.StringType),
	)
	if err != nil {
		return nil, wrapRuleError("cel", "", err)
	}
	return &CELEngine{cache: cache, env: env}, nil
}

func (e *CELEngine) Name() string { return "cel" }

func (e *CELEngine) Match(rule string, match BlockMatch) (bool, error) {
	if rule == "" {
		return false, wrapRuleError(e.Name(), rule, fmt.Errorf("rule must not be empty"))
	}
	program, err := e.loadOrCompile(rule)
	if err != nil {
		return false, err
	}
	out, _, err := program.Eval(match.env())
	if err != nil {
		return false, wrapRuleError(e.Name(), rule, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, wrapRuleError(e.Name(), rule, fmt.Errorf("rule returned %T, want bool", out.Value()))
	}
	return matched, nil
}

func (e *CELEngine) loadOrCompile(rule string) (celgo.Program, error) {
	key := e.Name() + ":" + rule
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}
	ast, issues := e.env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, wrapRuleError(e.Name(), rule, issues.Err())
	}
	if !ast.OutputType().IsExactType(celgo.BoolType) {
		return nil, wrapRuleError(e.Name(), rule, fmt.Errorf("rule must return bool, got %s", ast.OutputType()))
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, wrapRuleError(e.Name(), rule, err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}
