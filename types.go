package grid

import "strings"

// Origin identifies where a column comes from.
type Origin string

const (
	// OriginGrid marks columns native to the listing block.
	OriginGrid Origin = "grid"
	// OriginCollection marks columns derived from the data collection.
	OriginCollection Origin = "collection"
	// OriginAttribute marks columns bound to an entity attribute.
	OriginAttribute Origin = "attribute"
	// OriginCustom marks user-defined custom columns.
	OriginCustom Origin = "custom"
)

// Origins returns every known origin in bucket order.
func Origins() []Origin {
	return []Origin{OriginGrid, OriginCollection, OriginAttribute, OriginCustom}
}

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	switch o {
	case OriginGrid, OriginCollection, OriginAttribute, OriginCustom:
		return true
	default:
		return false
	}
}

const (
	// ColumnsOrderPitch is the gap left between successively appended columns.
	ColumnsOrderPitch = 10

	AttributeColumnIDPrefix = "_grid_attribute_column_"
	CustomColumnIDPrefix    = "_grid_custom_column_"
	AttributeColumnAlias    = "grid_attribute_field_"
	CustomColumnAlias       = "grid_custom_field_"
)

// Column is one configured column of a grid profile.
type Column struct {
	ID        string `json:"id" yaml:"id" validate:"required"`
	Origin    Origin `json:"origin" yaml:"origin" validate:"required,oneof=grid collection attribute custom"`
	Index     string `json:"index,omitempty" yaml:"index"`
	Order     int    `json:"order" yaml:"order"`
	Visible   bool   `json:"visible" yaml:"visible"`
	Header    string `json:"header,omitempty" yaml:"header"`
	Width     string `json:"width,omitempty" yaml:"width"`
	Align     string `json:"align,omitempty" yaml:"align"`
	Missing   bool   `json:"missing,omitempty" yaml:"missing"`
	StorageID int64  `json:"storage_id,omitempty" yaml:"storage_id"`
}

// IsAttribute reports whether the column is bound to an entity attribute.
func (c *Column) IsAttribute() bool { return c.Origin == OriginAttribute }

// IsCustom reports whether the column is a custom column.
func (c *Column) IsCustom() bool { return c.Origin == OriginCustom }

// IsCollection reports whether the column comes from the data collection.
func (c *Column) IsCollection() bool { return c.Origin == OriginCollection }

func (c *Column) clone() *Column {
	out := *c
	return &out
}

// ColumnPatch carries a partial column update. Nil fields are left untouched.
type ColumnPatch struct {
	Origin  *Origin
	Index   *string
	Order   *int
	Visible *bool
	Header  *string
	Width   *string
	Align   *string
	Missing *bool
}

func (p ColumnPatch) apply(c *Column) {
	if p.Origin != nil {
		c.Origin = *p.Origin
	}
	if p.Index != nil {
		c.Index = *p.Index
	}
	if p.Order != nil {
		c.Order = *p.Order
	}
	if p.Visible != nil {
		c.Visible = *p.Visible
	}
	if p.Header != nil {
		c.Header = *p.Header
	}
	if p.Width != nil {
		c.Width = *p.Width
	}
	if p.Align != nil {
		c.Align = *p.Align
	}
	if p.Missing != nil {
		c.Missing = *p.Missing
	}
}

// Profile is a saved variant of a grid configuration.
type Profile struct {
	ID              int      `json:"id" yaml:"id" validate:"gt=0"`
	Name            string   `json:"name" yaml:"name" validate:"required"`
	Base            bool     `json:"base,omitempty" yaml:"base"`
	Restricted      bool     `json:"restricted,omitempty" yaml:"restricted"`
	AssignedRoleIDs []string `json:"assigned_role_ids,omitempty" yaml:"assigned_role_ids"`
	// RememberedParams lists the grid params restored when the profile becomes
	// active again. Nil falls back to the grid default.
	RememberedParams []string `json:"remembered_params,omitempty" yaml:"remembered_params"`
}

// AssignedTo reports whether the profile is explicitly assigned to roleID.
func (p *Profile) AssignedTo(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, id := range p.AssignedRoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// ProfileSessionState is the per-session bookkeeping kept for one profile.
type ProfileSessionState struct {
	RememberedValues map[string]string `json:"remembered_values,omitempty"`
	AppliedFilters   map[string]string `json:"applied_filters,omitempty"`
	RemovedFilters   map[string]string `json:"removed_filters,omitempty"`
}

// UserConfig holds per-user overrides for a grid.
type UserConfig struct {
	DefaultProfileID *int       `json:"default_profile_id,omitempty" yaml:"default_profile_id"`
	Parameters       Parameters `json:"parameters,omitempty" yaml:"parameters"`
}

// RoleConfig holds per-role overrides for a grid.
type RoleConfig struct {
	DefaultProfileID   *int              `json:"default_profile_id,omitempty" yaml:"default_profile_id"`
	Permissions        map[Action]Access `json:"permissions,omitempty" yaml:"permissions"`
	AssignedProfileIDs []int             `json:"assigned_profile_ids,omitempty" yaml:"assigned_profile_ids"`
	Parameters         Parameters        `json:"parameters,omitempty" yaml:"parameters"`
}

// HasAssignedProfile reports whether profileID is assigned to the role.
func (c *RoleConfig) HasAssignedProfile(profileID int) bool {
	if c == nil {
		return false
	}
	for _, id := range c.AssignedProfileIDs {
		if id == profileID {
			return true
		}
	}
	return false
}

// Principal identifies who acts on a grid.
type Principal struct {
	UserID string
	RoleID string
}

// Actor binds a principal to the session state and notice sink of the
// current request.
type Actor struct {
	Principal Principal
	Session   SessionStore
	Notices   Notifier
}

// GridParam names one of the request parameters a grid block reads.
type GridParam string

const (
	ParamNone   GridParam = "none"
	ParamPage   GridParam = "page"
	ParamLimit  GridParam = "limit"
	ParamSort   GridParam = "sort"
	ParamDir    GridParam = "dir"
	ParamFilter GridParam = "filter"
)

// GridParams returns the grid parameter keys, optionally led by ParamNone.
func GridParams(withNone bool) []GridParam {
	params := []GridParam{ParamPage, ParamLimit, ParamSort, ParamDir, ParamFilter}
	if withNone {
		params = append([]GridParam{ParamNone}, params...)
	}
	return params
}

// VarNames overrides the request variable names used by a grid block.
type VarNames struct {
	Page   string `json:"page,omitempty" yaml:"page"`
	Limit  string `json:"limit,omitempty" yaml:"limit"`
	Sort   string `json:"sort,omitempty" yaml:"sort"`
	Dir    string `json:"dir,omitempty" yaml:"dir"`
	Filter string `json:"filter,omitempty" yaml:"filter"`
}

// Lookup returns the variable name for param, defaulting to the param key.
func (v VarNames) Lookup(param GridParam) string {
	var name string
	switch param {
	case ParamPage:
		name = v.Page
	case ParamLimit:
		name = v.Limit
	case ParamSort:
		name = v.Sort
	case ParamDir:
		name = v.Dir
	case ParamFilter:
		name = v.Filter
	default:
		return ""
	}
	if strings.TrimSpace(name) == "" {
		return string(param)
	}
	return name
}

// Record is the raw persisted state of a grid.
type Record struct {
	ID                 string `json:"id,omitempty" yaml:"id"`
	BlockType          string `json:"block_type" yaml:"block_type"`
	BlockID            string `json:"block_id" yaml:"block_id"`
	RewritingClassName string `json:"rewriting_class_name,omitempty" yaml:"rewriting_class_name"`
	ForcedTypeCode     string `json:"forced_type_code,omitempty" yaml:"forced_type_code"`
	Disabled           bool   `json:"disabled,omitempty" yaml:"disabled"`

	BaseProfileID          *int `json:"base_profile_id,omitempty" yaml:"base_profile_id"`
	GlobalDefaultProfileID *int `json:"global_default_profile_id,omitempty" yaml:"global_default_profile_id"`

	MaxAttributeColumnBaseID *int `json:"max_attribute_column_base_id,omitempty" yaml:"max_attribute_column_base_id"`
	MaxCustomColumnBaseID    *int `json:"max_custom_column_base_id,omitempty" yaml:"max_custom_column_base_id"`

	VarNames  VarNames          `json:"var_names,omitempty" yaml:"var_names"`
	Overrides InstanceOverrides `json:"overrides,omitempty" yaml:"overrides"`
}
