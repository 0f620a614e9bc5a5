package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"gopkg.in/yaml.v3"
)

// templateFile is the layout of the voucher template seed file.
type templateFile struct {
	Templates []*models.VoucherTemplate `yaml:"templates"`
}

type templateUpserter interface {
	UpsertByName(ctx context.Context, template *models.VoucherTemplate) error
}

var discountTypes = map[string]bool{"percentage": true, "fixed": true, "free_item": true}

// loadTemplates decodes and validates a template seed file. Templates with
// no validDays get defaultValidDays.
func loadTemplates(r io.Reader, defaultValidDays int) ([]*models.VoucherTemplate, error) {
	var file templateFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	seen := make(map[string]bool, len(file.Templates))
	for i, t := range file.Templates {
		t.Name = strings.TrimSpace(t.Name)
		switch {
		case t.Name == "":
			return nil, fmt.Errorf("template %d: name is required", i)
		case seen[t.Name]:
			return nil, fmt.Errorf("template %d: duplicate name %q", i, t.Name)
		case t.PointsCost < 0:
			return nil, fmt.Errorf("template %q: pointsCost must not be negative", t.Name)
		case !discountTypes[t.DiscountType]:
			return nil, fmt.Errorf("template %q: unknown discountType %q", t.Name, t.DiscountType)
		case t.Inventory != nil && *t.Inventory < 0:
			return nil, fmt.Errorf("template %q: inventory must not be negative", t.Name)
		}
		seen[t.Name] = true
		if t.ValidDays <= 0 {
			t.ValidDays = defaultValidDays
		}
	}
	return file.Templates, nil
}

func seedTemplates(ctx context.Context, repo templateUpserter, templates []*models.VoucherTemplate) (int, error) {
	for i, t := range templates {
		if err := repo.UpsertByName(ctx, t); err != nil {
			return i, fmt.Errorf("upsert %q: %w", t.Name, err)
		}
	}
	return len(templates), nil
}

// selectTemplates keeps the templates named in only, in file order. An empty
// only keeps everything. Names with no matching template are returned.
func selectTemplates(templates []*models.VoucherTemplate, only []string) ([]*models.VoucherTemplate, []string) {
	if len(only) == 0 {
		return templates, nil
	}

	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[name] = false
	}
	var out []*models.VoucherTemplate
	for _, t := range templates {
		if _, ok := wanted[t.Name]; ok {
			wanted[t.Name] = true
			out = append(out, t)
		}
	}

	var missing []string
	for _, name := range only {
		if !wanted[name] {
			missing = append(missing, name)
		}
	}
	return out, missing
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
