package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/duskmoss/sortify/internal/models"
	"github.com/duskmoss/sortify/internal/shared"
	"github.com/duskmoss/sortify/internal/tasks"
)

// SortRun fetches a playlist, sorts it, and writes the result to a new playlist.
func (r *Runner) SortRun(ctx context.Context, cmd *cli.Command) error {
	source := cmd.String("source")
	dest := cmd.String("dest")

	rules, err := r.resolveRules(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("sorting playlist", "source", source, "rules", formatRules(rules))

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Total > 0 {
				r.writePlain("→ %s (%d/%d)\n", update.Message, update.Step, update.Total)
			} else {
				r.writePlain("→ %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Run(ctx, progress, source, dest, rules)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("✓ Sorted %q into %q", result.Source.Name, result.Created.Name)
	r.writePlain("Playlist ID: %s\n", result.Created.ID)
	r.writePlain("Tracks written: %d (%d batches)\n", result.TrackCount, result.Batches)

	return nil
}

// SortPreview shows the sorted order without writing anything.
func (r *Runner) SortPreview(ctx context.Context, cmd *cli.Command) error {
	source := cmd.String("source")
	limit := int(cmd.Int("limit"))
	useJSON := cmd.Bool("json")

	rules, err := r.resolveRules(cmd)
	if err != nil {
		return err
	}

	preview, err := r.engine.Preview(ctx, nil, source, rules)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(preview, true)
	}

	r.writePlain("Playlist: %s\n", preview.Source.Name)
	r.writePlain("Rules: %s\n\n", formatRules(preview.Rules))

	rows := preview.Rows
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	for i, row := range rows {
		r.writePlain("%d. %s - %s\n", i+1, row.Artists, row.Name)
	}
	if len(rows) < len(preview.Rows) {
		r.writePlain("... and %d more\n", len(preview.Rows)-len(rows))
	}

	return nil
}

// resolveRules reads the rule list from --preset or --rules.
func (r *Runner) resolveRules(cmd *cli.Command) ([]models.SortRule, error) {
	presetName := cmd.String("preset")
	rulesStr := cmd.String("rules")

	if presetName != "" && rulesStr != "" {
		return nil, fmt.Errorf("%w: cannot specify both --rules and --preset", shared.ErrInvalidFlag)
	}

	if presetName != "" {
		if r.presets == nil {
			return nil, fmt.Errorf("%w: preset store not initialized, run 'sortify setup database'", shared.ErrServiceUnavailable)
		}
		preset, err := r.presets.GetByName(presetName)
		if err != nil {
			return nil, err
		}
		return preset.Rules, nil
	}

	if rulesStr == "" {
		return nil, fmt.Errorf("%w: either --rules or --preset must be provided", shared.ErrMissingArgument)
	}

	return parseRules(rulesStr)
}

// parseRules parses a comma-separated rule list like "popularity:desc,name".
// A rule without a direction sorts ascending.
func parseRules(s string) ([]models.SortRule, error) {
	var rules []models.SortRule
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		fieldStr, dirStr, hasDir := strings.Cut(part, ":")
		field, err := models.ParseSortField(fieldStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}

		direction := models.Ascending
		if hasDir {
			if direction, err = models.ParseSortDirection(dirStr); err != nil {
				return nil, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
			}
		}

		rules = append(rules, models.SortRule{Field: field, Direction: direction})
	}

	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no sort rules given", shared.ErrInvalidFlag)
	}

	return rules, nil
}

func formatRules(rules []models.SortRule) string {
	parts := make([]string, len(rules))
	for i, rule := range rules {
		parts[i] = rule.String()
	}
	return strings.Join(parts, ", ")
}

// PresetSave stores a named rule list.
func (r *Runner) PresetSave(ctx context.Context, cmd *cli.Command) error {
	if r.presets == nil {
		return fmt.Errorf("%w: preset store not initialized, run 'sortify setup database'", shared.ErrServiceUnavailable)
	}

	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: preset name is required", shared.ErrMissingArgument)
	}

	rules, err := parseRules(cmd.String("rules"))
	if err != nil {
		return err
	}

	preset := &models.SortPreset{Name: name, Rules: rules}
	if err := r.presets.Create(preset); err != nil {
		return err
	}

	return r.writePlain("✓ Preset %q saved: %s\n", preset.Name, formatRules(preset.Rules))
}

// PresetList shows all saved presets.
func (r *Runner) PresetList(ctx context.Context, cmd *cli.Command) error {
	if r.presets == nil {
		return fmt.Errorf("%w: preset store not initialized, run 'sortify setup database'", shared.ErrServiceUnavailable)
	}

	presets, err := r.presets.List()
	if err != nil {
		return err
	}

	if len(presets) == 0 {
		return r.writePlain("No presets saved.\n")
	}

	for _, preset := range presets {
		r.writePlain("%s: %s\n", preset.Name, formatRules(preset.Rules))
	}

	return nil
}

// PresetDelete removes a preset by name.
func (r *Runner) PresetDelete(ctx context.Context, cmd *cli.Command) error {
	if r.presets == nil {
		return fmt.Errorf("%w: preset store not initialized, run 'sortify setup database'", shared.ErrServiceUnavailable)
	}

	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: preset name is required", shared.ErrMissingArgument)
	}

	if err := r.presets.Delete(name); err != nil {
		return err
	}

	return r.writePlain("✓ Preset %q deleted\n", name)
}
