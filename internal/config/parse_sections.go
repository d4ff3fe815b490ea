package config

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/flarebyte/shiftlog/internal/record"
)

func parseStoreSection(v cue.Value, cfg *Config) error {
	return firstErr(
		optionalString(v, "dataDir", &cfg.DataDir),
		optionalInt(v, "store.maxValueBytes", &cfg.Store.MaxValueBytes),
	)
}

// parseCategoriesSection extracts categories.<id>.{label,admit}. Unknown
// ids are rejected so a typo does not silently disable an override.
func parseCategoriesSection(v cue.Value, cfg *Config) error {
	cv, ok := lookup(v, "categories")
	if !ok {
		return nil
	}
	if cv.Kind() != cue.StructKind {
		return fmt.Errorf("invalid type for field: categories (expected struct)")
	}
	iter, err := cv.Fields()
	if err != nil {
		return fmt.Errorf("invalid value for categories: %v", err)
	}
	for iter.Next() {
		id := iter.Selector().String()
		cat := record.Category(id)
		if !cat.Valid() {
			return fmt.Errorf("unknown category in config: %q", id)
		}
		var c Category
		base := "categories." + id
		if err := firstErr(
			optionalString(v, base+".label", &c.Label),
			optionalString(v, base+".admit", &c.Admit),
		); err != nil {
			return err
		}
		cfg.Categories[cat] = c
	}
	return nil
}

func parseExportSection(v cue.Value, cfg *Config) error {
	return firstErr(
		optionalString(v, "export.format", &cfg.Export.Format),
		optionalString(v, "export.outDir", &cfg.Export.OutDir),
		optionalString(v, "export.combinedName", &cfg.Export.CombinedName),
		optionalString(v, "export.handoffRepo", &cfg.Export.HandoffRepo),
	)
}

func parseCacheSection(v cue.Value, cfg *Config) error {
	return firstErr(
		optionalString(v, "cache.name", &cfg.Cache.Name),
		optionalString(v, "cache.version", &cfg.Cache.Version),
		optionalString(v, "cache.origin", &cfg.Cache.Origin),
		optionalString(v, "cache.dir", &cfg.Cache.Dir),
		optionalStrings(v, "cache.manifest", &cfg.Cache.Manifest),
	)
}

func parseReminderSection(v cue.Value, cfg *Config) error {
	r := &cfg.Reminder
	return firstErr(
		optionalBool(v, "reminder.enabled", &r.Enabled),
		optionalInt(v, "reminder.intervalMinutes", &r.IntervalMinutes),
		optionalString(v, "reminder.tag", &r.Tag),
		optionalString(v, "reminder.title", &r.Title),
		optionalString(v, "reminder.body", &r.Body),
		optionalString(v, "reminder.icon", &r.Icon),
		optionalString(v, "reminder.badge", &r.Badge),
		optionalBool(v, "reminder.requireInteraction", &r.RequireInteraction),
		optionalBool(v, "reminder.dismissOpensApp", &r.DismissOpensApp),
	)
}

func parseServerSection(v cue.Value, cfg *Config) error {
	return optionalString(v, "server.addr", &cfg.Server.Addr)
}
