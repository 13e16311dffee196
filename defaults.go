package grid

// ParameterSources gathers the layers contributing to a grid's parameters.
type ParameterSources struct {
	Instance  Parameters
	Principal Principal
	User      *UserConfig
	Role      *RoleConfig
}

// DefaultParameterResolver cascades parameters through the instance, user,
// role, global and built-in layers.
type DefaultParameterResolver struct {
	global  Parameters
	builtin Parameters
}

// NewDefaultParameterResolver builds a resolver whose global layer is
// global, typically loaded from configuration.
func NewDefaultParameterResolver(global Parameters) *DefaultParameterResolver {
	return &DefaultParameterResolver{
		global:  global,
		builtin: BuiltinParameters(),
	}
}

// Global returns the process-wide layer.
func (r *DefaultParameterResolver) Global() Parameters {
	return r.global
}

// Stack builds the cascade for sources.
func (r *DefaultParameterResolver) Stack(sources ParameterSources) (*Stack[Parameters], error) {
	layers := []Layer[Parameters]{
		NewLayer(NewScope(ScopeInstance, ScopePriorityInstance, WithScopeLabel("Grid")), sources.Instance, ""),
		NewLayer(NewScope(ScopeGlobal, ScopePriorityGlobal, WithScopeLabel("Configuration")), r.global, ""),
		NewLayer(NewScope(ScopeBuiltin, ScopePriorityBuiltin, WithScopeLabel("Built-in")), r.builtin, ""),
	}
	if sources.User != nil {
		layers = append(layers, NewLayer(NewScope(ScopeUser, ScopePriorityUser, WithScopeLabel("User")), sources.User.Parameters, sources.Principal.UserID))
	}
	if sources.Role != nil {
		layers = append(layers, NewLayer(NewScope(ScopeRole, ScopePriorityRole, WithScopeLabel("Role")), sources.Role.Parameters, sources.Principal.RoleID))
	}
	return NewStack(layers...)
}

// Resolve returns the effective parameters for sources.
func (r *DefaultParameterResolver) Resolve(sources ParameterSources) (ResolvedParameters, error) {
	stack, err := r.Stack(sources)
	if err != nil {
		return ResolvedParameters{}, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return ResolvedParameters{}, err
	}
	return merged.resolved(), nil
}

// Trace reports the provenance of field, named by its json tag.
func (r *DefaultParameterResolver) Trace(sources ParameterSources, field string) (Trace, error) {
	stack, err := r.Stack(sources)
	if err != nil {
		return Trace{}, err
	}
	return stack.Trace(field), nil
}
