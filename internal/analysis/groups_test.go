package analysis

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStatGroupsResolve(t *testing.T) {
	available := []string{"Gls", "Sh", "xG", "Min"}

	attrs, dropped, err := DefaultStatGroups.Resolve("attacking", available)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(attrs, ",") != "Gls,xG,Sh" {
		t.Errorf("attrs = %v, want group order", attrs)
	}
	if strings.Join(dropped, ",") != "Ast,npxG,SoT" {
		t.Errorf("dropped = %v", dropped)
	}

	if _, _, err := DefaultStatGroups.Resolve("WINGBACK", available); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("unknown group: got %v, want ErrUnknownGroup", err)
	}
}

func TestStatGroupsNamesSorted(t *testing.T) {
	names := DefaultStatGroups.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestLoadPresetsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.json")
	body := `{"groups": {"pressing": ["Tkl", "Press"]}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPresetsFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Groups["PRESSING"]; !ok {
		t.Errorf("groups = %v, want upper-cased PRESSING", p.Groups)
	}
	if _, ok := p.Groups["ATTACKING"]; ok {
		t.Error("file groups replace the defaults")
	}
	if len(p.Derived) == 0 {
		t.Error("derived columns fall back to defaults")
	}

	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte(`{"derived": [{"name": "x"}]}`), 0o600)
	if _, err := LoadPresetsFromFile(bad); err == nil {
		t.Error("invalid derived column must fail")
	}
	if _, err := LoadPresetsFromFile(""); err == nil {
		t.Error("empty path must fail")
	}
}

func TestDefaultPresetsIsCopy(t *testing.T) {
	p := DefaultPresets()
	p.Groups["ATTACKING"][0] = "changed"
	if DefaultStatGroups["ATTACKING"][0] == "changed" {
		t.Error("DefaultPresets must not share slices with DefaultStatGroups")
	}
}
