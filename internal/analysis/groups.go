package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ErrUnknownGroup is returned when a stat group name is not configured.
var ErrUnknownGroup = errors.New("unknown stat group")

// StatGroups maps a role name to an ordered list of attributes.
type StatGroups map[string][]string

// DefaultStatGroups are the predefined role groupings, using FBref column names.
var DefaultStatGroups = StatGroups{
	"ATTACKING":   {"Gls", "Ast", "xG", "npxG", "Sh", "SoT"},
	"PASSING":     {"Cmp", "Cmp%", "PrgP", "KP", "xAG", "Ast"},
	"DEFENDING":   {"Tkl", "TklW", "Int", "Blocks", "Clr", "Err"},
	"POSSESSION":  {"Touches", "Carries", "PrgC", "Succ", "Mis", "Dis"},
	"GOALKEEPING": {"GA", "Saves", "Save%", "CS", "PKsv"},
}

// Names returns group names sorted alphabetically.
func (g StatGroups) Names() []string {
	names := make([]string, 0, len(g))
	for n := range g {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the attributes of the named group that exist in available,
// in group order. Entries not in available are returned in dropped instead of
// failing the lookup; only an unknown group name is an error.
func (g StatGroups) Resolve(name string, available []string) (attrs, dropped []string, err error) {
	group, ok := g[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownGroup, name, strings.Join(g.Names(), ", "))
	}

	avail := make(map[string]bool, len(available))
	for _, a := range available {
		avail[a] = true
	}
	for _, a := range group {
		if avail[a] {
			attrs = append(attrs, a)
		} else {
			dropped = append(dropped, a)
		}
	}
	return attrs, dropped, nil
}

// Presets bundles the static configuration tables: stat groups and derived columns.
type Presets struct {
	Groups  StatGroups      `json:"groups"`
	Derived []DerivedColumn `json:"derived"`
}

// DefaultPresets returns the built-in groups and the usual per-90 derivations.
func DefaultPresets() Presets {
	groups := make(StatGroups, len(DefaultStatGroups))
	for k, v := range DefaultStatGroups {
		groups[k] = append([]string(nil), v...)
	}
	return Presets{
		Groups: groups,
		Derived: []DerivedColumn{
			{Name: "Gls/90", Numerator: "Gls", Denominator: "Min", Factor: 90},
			{Name: "Ast/90", Numerator: "Ast", Denominator: "Min", Factor: 90},
			{Name: "xG/90", Numerator: "xG", Denominator: "Min", Factor: 90},
		},
	}
}

// LoadPresetsFromFile reads presets from a JSON file. Group names are upper-cased.
// Sections missing from the file fall back to the defaults.
func LoadPresetsFromFile(path string) (Presets, error) {
	if path == "" {
		return Presets{}, fmt.Errorf("presets path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Presets{}, fmt.Errorf("read presets %s: %w", path, err)
	}

	var raw Presets
	if err := json.Unmarshal(b, &raw); err != nil {
		return Presets{}, fmt.Errorf("parse presets %s: %w", path, err)
	}

	out := DefaultPresets()
	if raw.Groups != nil {
		out.Groups = make(StatGroups, len(raw.Groups))
		for name, attrs := range raw.Groups {
			out.Groups[strings.ToUpper(strings.TrimSpace(name))] = attrs
		}
	}
	if raw.Derived != nil {
		for _, d := range raw.Derived {
			if err := d.validate(); err != nil {
				return Presets{}, fmt.Errorf("presets %s: %w", path, err)
			}
		}
		out.Derived = raw.Derived
	}
	return out, nil
}
