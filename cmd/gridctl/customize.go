package main

import (
	"fmt"
	"strconv"
	"strings"

	grid "github.com/goliatone/go-grid"
	"github.com/spf13/cobra"
)

func newCustomizeCmd() *cobra.Command {
	var (
		who   principalFlags
		set   []string
		unset []string
	)
	cmd := &cobra.Command{
		Use:   "customize <grid-id>",
		Short: "Change the display parameters stored on a grid",
		Example: `  gridctl customize 7 --allow edit_customization_params --set pin_header=true --set pagination_values=20,50
  gridctl customize 7 --allow edit_customization_params --unset pin_header`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := parseCustomization(set, unset)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.Grid(ctx, args[0], who.principal(), who.permissions(), nil)
			if err != nil {
				return err
			}
			if err := g.UpdateCustomizationParameters(ctx, update); err != nil {
				return err
			}
			if err := g.Save(ctx, a.store); err != nil {
				return err
			}
			params, err := g.Parameters(ctx)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), params)
		},
	}
	who.register(cmd)
	cmd.Flags().StringArrayVar(&set, "set", nil, "key=value override to store")
	cmd.Flags().StringArrayVar(&unset, "unset", nil, "override to remove")
	return cmd
}

func parseCustomization(set, unset []string) (grid.CustomizationUpdate, error) {
	var update grid.CustomizationUpdate
	for _, key := range unset {
		if err := applyCustomization(&update, key, ""); err != nil {
			return update, err
		}
	}
	for _, pair := range set {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || value == "" {
			return update, fmt.Errorf("gridctl: --set wants key=value, got %q", pair)
		}
		if err := applyCustomization(&update, key, value); err != nil {
			return update, err
		}
	}
	return update, nil
}

// applyCustomization clears key when raw is empty.
func applyCustomization(update *grid.CustomizationUpdate, key, raw string) error {
	bools := map[string]*grid.Patch[bool]{
		"display_system_part":        &update.DisplaySystemPart,
		"ignore_custom_headers":      &update.IgnoreCustomHeaders,
		"ignore_custom_widths":       &update.IgnoreCustomWidths,
		"ignore_custom_alignments":   &update.IgnoreCustomAlignments,
		"merge_base_pagination":      &update.MergeBasePagination,
		"pin_header":                 &update.PinHeader,
		"rss_links_window":           &update.UseRSSLinksWindow,
		"hide_original_export_block": &update.HideOriginalExportBlock,
		"hide_filter_reset_button":   &update.HideFilterResetButton,
	}
	key = strings.TrimSpace(key)
	if patch, ok := bools[key]; ok {
		if raw == "" {
			*patch = grid.Clear[bool]()
			return nil
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("gridctl: %s: %w", key, err)
		}
		*patch = grid.Set(value)
		return nil
	}

	switch key {
	case "default_pagination_value":
		if raw == "" {
			update.DefaultPaginationValue = grid.Clear[int]()
			return nil
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("gridctl: %s: %w", key, err)
		}
		update.DefaultPaginationValue = grid.Set(value)
	case "pagination_values":
		if raw == "" {
			update.PaginationValues = grid.Clear[[]int]()
			return nil
		}
		var values []int
		for _, part := range strings.Split(raw, ",") {
			value, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return fmt.Errorf("gridctl: %s: %w", key, err)
			}
			values = append(values, value)
		}
		update.PaginationValues = grid.Set(values)
	default:
		return fmt.Errorf("gridctl: unknown customization parameter %q", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newCustomizeCmd())
}
