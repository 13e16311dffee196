package grid

import (
	"slices"
	"strconv"
	"strings"
)

// Parameters holds the configurable behavior of a grid. Nil fields are
// unset and fall through to the next layer of the defaults cascade.
type Parameters struct {
	ProfilesDefaultRestricted       *bool    `json:"profiles_default_restricted,omitempty" yaml:"profiles_default_restricted" mapstructure:"profiles_default_restricted"`
	ProfilesDefaultAssignedTo       []string `json:"profiles_default_assigned_to,omitempty" yaml:"profiles_default_assigned_to" mapstructure:"profiles_default_assigned_to"`
	ProfilesRememberedSessionParams []string `json:"profiles_remembered_session_params,omitempty" yaml:"profiles_remembered_session_params" mapstructure:"profiles_remembered_session_params"`

	DisplaySystemPart       *bool `json:"display_system_part,omitempty" yaml:"display_system_part" mapstructure:"display_system_part"`
	IgnoreCustomHeaders     *bool `json:"ignore_custom_headers,omitempty" yaml:"ignore_custom_headers" mapstructure:"ignore_custom_headers"`
	IgnoreCustomWidths      *bool `json:"ignore_custom_widths,omitempty" yaml:"ignore_custom_widths" mapstructure:"ignore_custom_widths"`
	IgnoreCustomAlignments  *bool `json:"ignore_custom_alignments,omitempty" yaml:"ignore_custom_alignments" mapstructure:"ignore_custom_alignments"`
	MergeBasePagination     *bool `json:"merge_base_pagination,omitempty" yaml:"merge_base_pagination" mapstructure:"merge_base_pagination"`
	PinHeader               *bool `json:"pin_header,omitempty" yaml:"pin_header" mapstructure:"pin_header"`
	UseRSSLinksWindow       *bool `json:"rss_links_window,omitempty" yaml:"rss_links_window" mapstructure:"rss_links_window"`
	HideOriginalExportBlock *bool `json:"hide_original_export_block,omitempty" yaml:"hide_original_export_block" mapstructure:"hide_original_export_block"`
	HideFilterResetButton   *bool `json:"hide_filter_reset_button,omitempty" yaml:"hide_filter_reset_button" mapstructure:"hide_filter_reset_button"`

	PaginationValues       []int `json:"pagination_values,omitempty" yaml:"pagination_values" mapstructure:"pagination_values" validate:"omitempty,dive,gt=0"`
	DefaultPaginationValue *int  `json:"default_pagination_value,omitempty" yaml:"default_pagination_value" mapstructure:"default_pagination_value" validate:"omitempty,gt=0"`
}

// BuiltinParameters is the last layer of the defaults cascade; every field
// is set.
func BuiltinParameters() Parameters {
	no := false
	yes := true
	pagination := 20
	return Parameters{
		ProfilesDefaultRestricted:       &no,
		ProfilesDefaultAssignedTo:       []string{},
		ProfilesRememberedSessionParams: []string{string(ParamPage), string(ParamLimit), string(ParamSort), string(ParamDir), string(ParamFilter)},
		DisplaySystemPart:               &no,
		IgnoreCustomHeaders:             &no,
		IgnoreCustomWidths:              &no,
		IgnoreCustomAlignments:          &no,
		MergeBasePagination:             &yes,
		PinHeader:                       &no,
		UseRSSLinksWindow:               &no,
		HideOriginalExportBlock:         &no,
		HideFilterResetButton:           &no,
		PaginationValues:                []int{20, 30, 50, 100, 200},
		DefaultPaginationValue:          &pagination,
	}
}

// ResolvedParameters is the outcome of the defaults cascade.
type ResolvedParameters struct {
	ProfilesDefaultRestricted       bool     `json:"profiles_default_restricted" yaml:"profiles_default_restricted"`
	ProfilesDefaultAssignedTo       []string `json:"profiles_default_assigned_to" yaml:"profiles_default_assigned_to"`
	ProfilesRememberedSessionParams []string `json:"profiles_remembered_session_params" yaml:"profiles_remembered_session_params"`
	DisplaySystemPart               bool     `json:"display_system_part" yaml:"display_system_part"`
	IgnoreCustomHeaders             bool     `json:"ignore_custom_headers" yaml:"ignore_custom_headers"`
	IgnoreCustomWidths              bool     `json:"ignore_custom_widths" yaml:"ignore_custom_widths"`
	IgnoreCustomAlignments          bool     `json:"ignore_custom_alignments" yaml:"ignore_custom_alignments"`
	MergeBasePagination             bool     `json:"merge_base_pagination" yaml:"merge_base_pagination"`
	PinHeader                       bool     `json:"pin_header" yaml:"pin_header"`
	UseRSSLinksWindow               bool     `json:"rss_links_window" yaml:"rss_links_window"`
	HideOriginalExportBlock         bool     `json:"hide_original_export_block" yaml:"hide_original_export_block"`
	HideFilterResetButton           bool     `json:"hide_filter_reset_button" yaml:"hide_filter_reset_button"`
	PaginationValues                []int    `json:"pagination_values" yaml:"pagination_values"`
	DefaultPaginationValue          int      `json:"default_pagination_value" yaml:"default_pagination_value"`
}

func (p Parameters) resolved() ResolvedParameters {
	return ResolvedParameters{
		ProfilesDefaultRestricted:       deref(p.ProfilesDefaultRestricted),
		ProfilesDefaultAssignedTo:       slices.Clone(p.ProfilesDefaultAssignedTo),
		ProfilesRememberedSessionParams: slices.Clone(p.ProfilesRememberedSessionParams),
		DisplaySystemPart:               deref(p.DisplaySystemPart),
		IgnoreCustomHeaders:             deref(p.IgnoreCustomHeaders),
		IgnoreCustomWidths:              deref(p.IgnoreCustomWidths),
		IgnoreCustomAlignments:          deref(p.IgnoreCustomAlignments),
		MergeBasePagination:             deref(p.MergeBasePagination),
		PinHeader:                       deref(p.PinHeader),
		UseRSSLinksWindow:               deref(p.UseRSSLinksWindow),
		HideOriginalExportBlock:         deref(p.HideOriginalExportBlock),
		HideFilterResetButton:           deref(p.HideFilterResetButton),
		PaginationValues:                slices.Clone(p.PaginationValues),
		DefaultPaginationValue:          deref(p.DefaultPaginationValue),
	}
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// InstanceOverrides are the parameter overrides persisted on the grid
// itself. List values keep their comma separated storage encoding.
type InstanceOverrides struct {
	ProfilesDefaultRestricted       *bool   `json:"profiles_default_restricted,omitempty" yaml:"profiles_default_restricted"`
	ProfilesDefaultAssignedTo       *string `json:"profiles_default_assigned_to,omitempty" yaml:"profiles_default_assigned_to"`
	ProfilesRememberedSessionParams *string `json:"profiles_remembered_session_params,omitempty" yaml:"profiles_remembered_session_params"`

	DisplaySystemPart       *bool `json:"display_system_part,omitempty" yaml:"display_system_part"`
	IgnoreCustomHeaders     *bool `json:"ignore_custom_headers,omitempty" yaml:"ignore_custom_headers"`
	IgnoreCustomWidths      *bool `json:"ignore_custom_widths,omitempty" yaml:"ignore_custom_widths"`
	IgnoreCustomAlignments  *bool `json:"ignore_custom_alignments,omitempty" yaml:"ignore_custom_alignments"`
	MergeBasePagination     *bool `json:"merge_base_pagination,omitempty" yaml:"merge_base_pagination"`
	PinHeader               *bool `json:"pin_header,omitempty" yaml:"pin_header"`
	UseRSSLinksWindow       *bool `json:"rss_links_window,omitempty" yaml:"rss_links_window"`
	HideOriginalExportBlock *bool `json:"hide_original_export_block,omitempty" yaml:"hide_original_export_block"`
	HideFilterResetButton   *bool `json:"hide_filter_reset_button,omitempty" yaml:"hide_filter_reset_button"`

	PaginationValues       *string `json:"pagination_values,omitempty" yaml:"pagination_values"`
	DefaultPaginationValue *int    `json:"default_pagination_value,omitempty" yaml:"default_pagination_value"`
}

// Parameters decodes the overrides into a cascade layer.
func (o InstanceOverrides) Parameters() Parameters {
	p := Parameters{
		ProfilesDefaultRestricted: o.ProfilesDefaultRestricted,
		DisplaySystemPart:         o.DisplaySystemPart,
		IgnoreCustomHeaders:       o.IgnoreCustomHeaders,
		IgnoreCustomWidths:        o.IgnoreCustomWidths,
		IgnoreCustomAlignments:    o.IgnoreCustomAlignments,
		MergeBasePagination:       o.MergeBasePagination,
		PinHeader:                 o.PinHeader,
		UseRSSLinksWindow:         o.UseRSSLinksWindow,
		HideOriginalExportBlock:   o.HideOriginalExportBlock,
		HideFilterResetButton:     o.HideFilterResetButton,
		DefaultPaginationValue:    o.DefaultPaginationValue,
	}
	if o.ProfilesDefaultAssignedTo != nil {
		p.ProfilesDefaultAssignedTo = splitCSV(*o.ProfilesDefaultAssignedTo)
	}
	if o.ProfilesRememberedSessionParams != nil {
		p.ProfilesRememberedSessionParams = NormalizeRememberedParams(splitCSV(*o.ProfilesRememberedSessionParams))
	}
	if o.PaginationValues != nil {
		p.PaginationValues = splitCSVInts(*o.PaginationValues)
	}
	return p
}

// NormalizeRememberedParams keeps the known grid params of params in their
// given order. ParamNone absorbs everything else.
func NormalizeRememberedParams(params []string) []string {
	known := GridParams(true)
	out := make([]string, 0, len(params))
	for _, raw := range params {
		param := strings.TrimSpace(raw)
		if !slices.Contains(known, GridParam(param)) || slices.Contains(out, param) {
			continue
		}
		if param == string(ParamNone) {
			return []string{string(ParamNone)}
		}
		out = append(out, param)
	}
	return out
}

// rememberableParams expands a remembered params list into grid params.
func rememberableParams(params []string) []GridParam {
	out := make([]GridParam, 0, len(params))
	for _, param := range NormalizeRememberedParams(params) {
		if GridParam(param) == ParamNone {
			return nil
		}
		out = append(out, GridParam(param))
	}
	return out
}

func splitCSV(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || slices.Contains(out, part) {
			continue
		}
		out = append(out, part)
	}
	return out
}

func splitCSVInts(raw string) []int {
	out := []int{}
	for _, part := range splitCSV(raw) {
		value, err := strconv.Atoi(part)
		if err != nil || value < 1 || slices.Contains(out, value) {
			continue
		}
		out = append(out, value)
	}
	return out
}

// joinCSV maps nil to an unset override; an empty list is stored as "".
func joinCSV(values []string) *string {
	if values == nil {
		return nil
	}
	joined := strings.Join(values, ",")
	return &joined
}

func joinCSVInts(values []int) *string {
	if values == nil {
		return nil
	}
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, strconv.Itoa(value))
	}
	joined := strings.Join(parts, ",")
	return &joined
}

// Patch carries an optional update of one field. Present marks a field the
// caller supplied; a present patch with a nil Value clears the override.
type Patch[T any] struct {
	Present bool
	Value   *T
}

// Set builds a present patch holding value.
func Set[T any](value T) Patch[T] {
	return Patch[T]{Present: true, Value: &value}
}

// Clear builds a present patch that removes the override.
func Clear[T any]() Patch[T] {
	return Patch[T]{Present: true}
}

func (p Patch[T]) applyTo(target **T) {
	if !p.Present {
		return
	}
	if p.Value == nil {
		*target = nil
		return
	}
	value := *p.Value
	*target = &value
}
