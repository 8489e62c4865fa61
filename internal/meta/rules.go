package meta

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Rule allows or disallows a library (or argument) on a platform.
type Rule struct {
	Action string   `json:"action"` // "allow" or "disallow"
	OS     *OSMatch `json:"os,omitempty"`
}

// OSMatch narrows a rule to one operating system or architecture.
type OSMatch struct {
	Name string `json:"name,omitempty"` // "windows", "osx", "linux"
	Arch string `json:"arch,omitempty"` // "x86", "x86_64", "arm64"
}

// OSName maps a GOOS value to the metadata's OS naming.
func OSName(goos string) string {
	switch goos {
	case "darwin":
		return "osx"
	default:
		return goos
	}
}

// ArchName maps a GOARCH value to the metadata's arch naming.
func ArchName(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	default:
		return goarch
	}
}

// matches reports whether the rule's OS clause applies to the platform.
// A rule with no OS clause matches everything.
func (r *Rule) matches(osName, arch string) bool {
	if r.OS == nil {
		return true
	}
	if r.OS.Name != "" && r.OS.Name != osName {
		return false
	}
	if r.OS.Arch != "" && r.OS.Arch != arch {
		return false
	}
	return true
}

// RulesAllow evaluates a rule list for a platform.
//
// With no rules everything is allowed. Otherwise the rules are evaluated
// in order starting from "disallow"; the last matching rule's action wins.
func RulesAllow(rules []Rule, osName, arch string) bool {
	if len(rules) == 0 {
		return true
	}
	allowed := false
	for i := range rules {
		if rules[i].matches(osName, arch) {
			allowed = rules[i].Action == "allow"
		}
	}
	return allowed
}

// ArtifactFor selects the artifact of the library for a platform.
//
// The second return reports whether the artifact is a native jar that
// must be extracted. ok is false when the library does not apply to the
// platform at all (excluded by rules, or no classifier for the OS).
func (l *Library) ArtifactFor(osName, arch string) (artifact *Artifact, native bool, ok bool) {
	if !RulesAllow(l.Rules, osName, arch) {
		return nil, false, false
	}

	if len(l.Downloads.Classifiers) > 0 {
		key, found := l.Natives[osName]
		if !found {
			return nil, false, false
		}
		// Some natives keys carry an ${arch} placeholder ("natives-windows-${arch}").
		key = strings.ReplaceAll(key, "${arch}", archBits(arch))
		art, found := l.Downloads.Classifiers[key]
		if !found {
			return nil, false, false
		}
		return &art, true, true
	}

	if l.Downloads.Artifact == nil {
		return nil, false, false
	}
	native = l.Extract != nil || len(l.Natives) > 0
	return l.Downloads.Artifact, native, true
}

func archBits(arch string) string {
	if arch == "x86" {
		return "32"
	}
	return "64"
}

// Arguments holds the modern argument templates of a version.
type Arguments struct {
	Game []Argument `json:"game"`
	JVM  []Argument `json:"jvm"`
}

// Argument is one launch argument: either a plain string or a rule-gated
// value that expands to zero or more strings on the current platform.
type Argument struct {
	Values []string
	Rules  []Rule
}

// UnmarshalJSON accepts the two wire shapes: a bare string, or an object
// with "rules" and a "value" that is itself a string or string array.
func (a *Argument) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Values = []string{s}
		a.Rules = nil
		return nil
	}

	var obj struct {
		Rules []Rule          `json:"rules"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("argument is neither string nor object: %w", err)
	}

	a.Rules = obj.Rules
	if err := json.Unmarshal(obj.Value, &s); err == nil {
		a.Values = []string{s}
		return nil
	}
	var many []string
	if err := json.Unmarshal(obj.Value, &many); err != nil {
		return fmt.Errorf("argument value is neither string nor array: %w", err)
	}
	a.Values = many
	return nil
}

// MarshalJSON writes the compact form when possible.
func (a Argument) MarshalJSON() ([]byte, error) {
	if a.Rules == nil && len(a.Values) == 1 {
		return json.Marshal(a.Values[0])
	}
	return json.Marshal(struct {
		Rules []Rule   `json:"rules,omitempty"`
		Value []string `json:"value"`
	}{a.Rules, a.Values})
}

// Expand returns the argument's values if its rules allow the platform,
// or nil otherwise.
func (a *Argument) Expand(osName, arch string) []string {
	if !RulesAllow(a.Rules, osName, arch) {
		return nil
	}
	return a.Values
}
