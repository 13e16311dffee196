package main

import (
	"context"
	"fmt"
	"io"

	grid "github.com/goliatone/go-grid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type principalFlags struct {
	userID string
	roleID string
	allow  []string
}

func (f *principalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.userID, "user", "", "acting user ID")
	cmd.Flags().StringVar(&f.roleID, "role", "", "acting role ID")
	cmd.Flags().StringSliceVar(&f.allow, "allow", nil, "actions granted to the principal (e.g. access_all_profiles,edit_profiles)")
}

func (f *principalFlags) principal() grid.Principal {
	return grid.Principal{UserID: f.userID, RoleID: f.roleID}
}

func (f *principalFlags) permissions() grid.PermissionChecker {
	granted := grid.StaticPermissions{}
	for _, action := range f.allow {
		granted[grid.Action(action)] = true
	}
	return granted
}

type resolveView struct {
	GridID     string                  `yaml:"grid_id"`
	Type       string                  `yaml:"type"`
	ProfileID  int                     `yaml:"profile_id"`
	Profile    string                  `yaml:"profile"`
	Available  []int                   `yaml:"available_profiles"`
	Columns    []grid.Column           `yaml:"columns"`
	Parameters grid.ResolvedParameters `yaml:"parameters"`
	Notices    []string                `yaml:"notices,omitempty"`
}

func newResolveCmd() *cobra.Command {
	var (
		who       principalFlags
		switchTo  int
		temporary bool
		visible   bool
	)
	cmd := &cobra.Command{
		Use:   "resolve <grid-id>",
		Short: "Show the profile, columns and parameters a principal gets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			notices := &grid.NoticeCollector{}
			g, err := a.Grid(ctx, args[0], who.principal(), who.permissions(), notices)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("switch") {
				if err := g.SetProfileID(ctx, switchTo, temporary); err != nil {
					return err
				}
			}
			filter := grid.AllColumns()
			filter.OnlyVisible = visible
			view, err := resolve(ctx, g, filter)
			if err != nil {
				return err
			}
			for _, notice := range notices.Notices() {
				view.Notices = append(view.Notices, notice.Message)
			}
			return writeYAML(cmd.OutOrStdout(), view)
		},
	}
	who.register(cmd)
	cmd.Flags().IntVar(&switchTo, "switch", 0, "switch to this profile before resolving")
	cmd.Flags().BoolVar(&temporary, "temporary", false, "do not remember the switched profile in the session")
	cmd.Flags().BoolVar(&visible, "visible", false, "only list visible columns")
	return cmd
}

func resolve(ctx context.Context, g *grid.Grid, filter grid.ColumnFilter) (resolveView, error) {
	view := resolveView{GridID: g.ID()}
	handler, err := g.TypeHandler(ctx)
	if err != nil {
		return view, err
	}
	view.Type = handler.Code()
	if view.ProfileID, err = g.ProfileID(ctx); err != nil {
		return view, err
	}
	profile, err := g.Profile(ctx, nil)
	if err != nil {
		return view, err
	}
	view.Profile = profile.Name
	if view.Available, err = g.AvailableProfileIDs(ctx); err != nil {
		return view, err
	}
	if view.Columns, err = g.SortedColumns(ctx, filter); err != nil {
		return view, err
	}
	if view.Parameters, err = g.Parameters(ctx); err != nil {
		return view, err
	}
	return view, nil
}

func writeYAML(w io.Writer, value any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("gridctl: encode: %w", err)
	}
	return encoder.Close()
}

func init() {
	rootCmd.AddCommand(newResolveCmd())
}
