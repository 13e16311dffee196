package grid

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
)

// TypeHandler knows how to customize one family of listing blocks.
type TypeHandler interface {
	Code() string
	Matches(ctx context.Context, match BlockMatch) (bool, error)
}

// DefaultTypeCode is the code of DefaultTypeHandler.
const DefaultTypeCode = "default"

// DefaultTypeHandler serves grids without a block type.
type DefaultTypeHandler struct{}

func (DefaultTypeHandler) Code() string { return DefaultTypeCode }

func (DefaultTypeHandler) Matches(context.Context, BlockMatch) (bool, error) {
	return true, nil
}

// BlockTypeHandler matches block types against glob patterns.
type BlockTypeHandler struct {
	code     string
	patterns []string
}

// NewBlockTypeHandler builds a handler matching any of patterns, using
// path.Match syntax (e.g. "catalog/product_*").
func NewBlockTypeHandler(code string, patterns ...string) *BlockTypeHandler {
	return &BlockTypeHandler{code: code, patterns: slices.Clone(patterns)}
}

func (h *BlockTypeHandler) Code() string { return h.code }

func (h *BlockTypeHandler) Matches(_ context.Context, match BlockMatch) (bool, error) {
	for _, pattern := range h.patterns {
		ok, err := path.Match(pattern, match.BlockType)
		if err != nil {
			return false, fmt.Errorf("grid: type %s pattern %q: %w", h.code, pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// RuleTypeHandler matches blocks with an expression rule.
type RuleTypeHandler struct {
	code   string
	rule   string
	engine RuleEngine
}

// NewRuleTypeHandler builds a handler evaluating rule with engine.
func NewRuleTypeHandler(code, rule string, engine RuleEngine) *RuleTypeHandler {
	return &RuleTypeHandler{code: code, rule: rule, engine: engine}
}

func (h *RuleTypeHandler) Code() string { return h.code }

func (h *RuleTypeHandler) Matches(_ context.Context, match BlockMatch) (bool, error) {
	if h.engine == nil {
		return false, wrapRuleError("", h.rule, errors.New("rule engine not configured"))
	}
	return h.engine.Match(h.rule, match)
}

var (
	ErrTypeCodeRequired  = errors.New("grid: type handler code must be provided")
	ErrDuplicateTypeCode = errors.New("grid: type handler codes must be unique")
)

// TypeRegistry holds type handlers in registration order. Matching is
// first match wins.
type TypeRegistry struct {
	handlers []TypeHandler
	byCode   map[string]TypeHandler
	fallback TypeHandler
}

// NewTypeRegistry registers handlers in order. fallback serves grids
// without a block type; nil means DefaultTypeHandler.
func NewTypeRegistry(fallback TypeHandler, handlers ...TypeHandler) (*TypeRegistry, error) {
	if fallback == nil {
		fallback = DefaultTypeHandler{}
	}
	r := &TypeRegistry{
		byCode:   map[string]TypeHandler{fallback.Code(): fallback},
		fallback: fallback,
	}
	for _, handler := range handlers {
		if err := r.Register(handler); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends handler.
func (r *TypeRegistry) Register(handler TypeHandler) error {
	if handler == nil || handler.Code() == "" {
		return ErrTypeCodeRequired
	}
	if _, exists := r.byCode[handler.Code()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTypeCode, handler.Code())
	}
	r.handlers = append(r.handlers, handler)
	r.byCode[handler.Code()] = handler
	return nil
}

// MatchingHandler returns the first handler matching the block. The second
// result is false when none matches.
func (r *TypeRegistry) MatchingHandler(ctx context.Context, blockType, rewritingClass string) (TypeHandler, bool, error) {
	match := BlockMatch{BlockType: blockType, RewritingClass: rewritingClass}
	for _, handler := range r.handlers {
		ok, err := handler.Matches(ctx, match)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return handler, true, nil
		}
	}
	return nil, false, nil
}

// ByCode returns the handler registered under code.
func (r *TypeRegistry) ByCode(code string) (TypeHandler, bool) {
	handler, ok := r.byCode[code]
	return handler, ok
}

// Default returns the fallback handler.
func (r *TypeRegistry) Default() TypeHandler {
	return r.fallback
}

// Codes lists the registered codes in matching order, fallback last.
func (r *TypeRegistry) Codes() []string {
	codes := make([]string, 0, len(r.handlers)+1)
	for _, handler := range r.handlers {
		codes = append(codes, handler.Code())
	}
	return append(codes, r.fallback.Code())
}
