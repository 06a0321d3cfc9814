package journal

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// CurrentSchema is the entry schema version produced by HydrateEntry.
// Documents without a schema field are treated as version 1.
const CurrentSchema = 2

type migration func(doc map[string]json.RawMessage) error

// migrations upgrade a raw entry document from the keyed version to the next.
var migrations = map[int]migration{
	1: splitLegacyDescriptors,
}

// HydrateEntry merges raw, a possibly partial JSON entry document, over the
// default template for date. Fields absent from raw keep their defaults and
// the result always carries date as its id. An empty or null raw yields the
// template itself.
func HydrateEntry(date string, raw []byte) (DailyEntry, error) {
	e := EmptyEntry(date)
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return e, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return e, fmt.Errorf("journal: decode entry %s: %w", date, err)
	}
	if err := upgrade(doc); err != nil {
		return e, fmt.Errorf("journal: upgrade entry %s: %w", date, err)
	}
	upgraded, err := json.Marshal(doc)
	if err != nil {
		return e, fmt.Errorf("journal: encode entry %s: %w", date, err)
	}
	if err := json.Unmarshal(upgraded, &e); err != nil {
		return EmptyEntry(date), fmt.Errorf("journal: merge entry %s: %w", date, err)
	}
	return Complete(date, e), nil
}

// Complete re-applies the defaults that a typed entry can lose in transit:
// the id, the schema version, and non-nil collections.
func Complete(date string, e DailyEntry) DailyEntry {
	e.ID = date
	e.Schema = CurrentSchema
	if e.State.Descriptors == nil {
		e.State.Descriptors = []string{}
	}
	if e.Checklist == nil {
		e.Checklist = map[string]bool{}
	}
	return e
}

// HydrateChecklist returns items, or the default checklist when nothing was
// ever configured. An explicitly emptied checklist stays empty.
func HydrateChecklist(items []ChecklistItemConfig) []ChecklistItemConfig {
	if items == nil {
		return DefaultChecklist()
	}
	return items
}

// HydrateAppData back-fills every collection of d and completes each entry
// against its key.
func HydrateAppData(d AppData) AppData {
	if d.Entries == nil {
		d.Entries = map[string]DailyEntry{}
	}
	for key, e := range d.Entries {
		d.Entries[key] = Complete(key, e)
	}
	if d.Principles == nil {
		d.Principles = []json.RawMessage{}
	}
	if d.Essays == nil {
		d.Essays = []json.RawMessage{}
	}
	d.ChecklistConfig = HydrateChecklist(d.ChecklistConfig)
	return d
}

func upgrade(doc map[string]json.RawMessage) error {
	version := 1
	if raw, ok := doc["schema"]; ok {
		if err := json.Unmarshal(raw, &version); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		if version < 1 {
			version = 1
		}
	}
	for ; version < CurrentSchema; version++ {
		if m, ok := migrations[version]; ok {
			if err := m(doc); err != nil {
				return fmt.Errorf("from v%d: %w", version, err)
			}
		}
	}
	delete(doc, "schema")
	return nil
}

// splitLegacyDescriptors turns a comma-joined descriptors string into a list.
func splitLegacyDescriptors(doc map[string]json.RawMessage) error {
	raw, ok := doc["state"]
	if !ok {
		return nil
	}
	var state map[string]json.RawMessage
	if err := json.Unmarshal(raw, &state); err != nil {
		return err
	}
	var joined string
	if err := json.Unmarshal(state["descriptors"], &joined); err != nil {
		// already a list, or absent
		return nil
	}
	list := []string{}
	for _, part := range strings.Split(joined, ",") {
		if p := strings.TrimSpace(part); p != "" {
			list = append(list, p)
		}
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return err
	}
	state["descriptors"] = encoded
	updated, err := json.Marshal(state)
	if err != nil {
		return err
	}
	doc["state"] = updated
	return nil
}
