package kscheme

import "dario.cat/mergo"

// mergeSiblings merges a flat list of entries declared at the same scheme
// level. Duplicate entries sharing a name merge: later merges override
// scalar attributes, and actions/nested entries are appended rather than
// replaced (spec.md §3, I: "duplicate entries with the same path merge").
//
// Order of first appearance is preserved for the merged result.
func mergeSiblings(entries []EntryImage) []EntryImage {
	order := make([]string, 0, len(entries))
	byName := make(map[string]EntryImage, len(entries))

	for _, e := range entries {
		e = e.withDefaults()
		existing, seen := byName[e.Name]
		if !seen {
			order = append(order, e.Name)
			byName[e.Name] = e
			continue
		}
		byName[e.Name] = mergeEntry(existing, e)
	}

	out := make([]EntryImage, 0, len(order))
	for _, name := range order {
		merged := byName[name]
		merged.Entries = mergeSiblings(merged.Entries)
		out = append(out, merged)
	}
	return out
}

// mergeEntry merges `next` onto `base`: scalar fields present on `next`
// override `base`'s; the slice fields Actions, Entries and Hotkeys
// append, while a non-empty Value on `next` replaces `base`'s through
// the same override. mergo handles the overlay; the slice append is explicit
// because mergo's default slice behaviour is "keep base, non-empty wins"
// which is not what an append-on-merge scheme wants.
func mergeEntry(base, next EntryImage) EntryImage {
	actions := append(append([]ActionImage{}, base.Actions...), next.Actions...)
	childEntries := append(append([]EntryImage{}, base.Entries...), next.Entries...)
	hotkeys := append(append([]HotkeyImage{}, base.Hotkeys...), next.Hotkeys...)

	next.Actions, next.Entries, next.Hotkeys = nil, nil, nil
	merged := base
	if err := mergo.Merge(&merged, next, mergo.WithOverride); err != nil {
		// mergo only fails on type mismatches between identical struct
		// shapes, which cannot happen here; surfacing a panic would be
		// worse than falling back to the override value outright.
		merged = next
	}
	merged.Actions = actions
	merged.Entries = childEntries
	merged.Hotkeys = hotkeys
	return merged
}

func normalizeActions(actions []ActionImage) []ActionImage {
	out := make([]ActionImage, len(actions))
	for i, a := range actions {
		out[i] = a.normalized()
	}
	return out
}
