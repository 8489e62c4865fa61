// Package jvm discovers and describes Java runtimes usable for launch.
package jvm

import (
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/synthlab/launcher/internal/errs"
)

// JVM is one registered Java runtime.
//
// Path is what gets executed; for the system default it is the bare
// "java" so PATH resolution applies at launch time.
type JVM struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// System returns the PATH-resolved default runtime. It always occupies
// index 0 of the registry and cannot be removed.
func System() JVM {
	return JVM{Name: "Java (system default)", Path: "java"}
}

// versionPattern matches the quoted version in `java -version` output,
// e.g. `openjdk version "17.0.2" 2022-01-18`.
var versionPattern = regexp.MustCompile(`(?:java|openjdk) version "([^"]+)"`)

// Probe executes path with -version and builds a JVM entry named after
// the reported version. A binary that runs but prints nothing
// recognizable classifies as a parse error.
func Probe(ctx context.Context, path string) (JVM, error) {
	cmd := exec.CommandContext(ctx, path, "-version")
	// `java -version` historically writes to stderr.
	out, err := cmd.CombinedOutput()
	if err != nil {
		return JVM{}, errs.New(errs.KindIO, "probe jvm "+path, err)
	}

	version, ok := ParseVersion(string(out))
	if !ok {
		return JVM{}, errs.Newf(errs.KindParse, "probe jvm "+path, "unrecognized -version output")
	}

	return JVM{Name: "Java " + version, Path: path}, nil
}

// ParseVersion extracts the runtime version from `java -version` output.
func ParseVersion(output string) (string, bool) {
	m := versionPattern.FindStringSubmatch(output)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
