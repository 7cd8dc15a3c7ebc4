package main

import (
	"context"
	"fmt"

	"github.com/Thiht/transactor"

	"github.com/benjamonnguyen/focusmomo"
	"github.com/benjamonnguyen/focusmomo/prefs"
)

// seedCategories upserts the categories declared in preferences.
func seedCategories(ctx context.Context, tx transactor.Transactor, repo focusmomo.CategoryRepo, categories []prefs.Category) error {
	if len(categories) == 0 {
		return nil
	}
	return tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, c := range categories {
			name := c.Name
			if name == "" {
				name = c.ID
			}
			if _, err := repo.UpsertCategory(ctx, focusmomo.CategoryID(c.ID), focusmomo.CategoryRecord{
				Name:    name,
				Domains: c.Domains,
			}); err != nil {
				return fmt.Errorf("seed category %q: %w", c.ID, err)
			}
		}
		return nil
	})
}
