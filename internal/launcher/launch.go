package launcher

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/synthlab/launcher/internal/errs"
	"github.com/synthlab/launcher/internal/meta"
)

// LaunchCommand assembles the full game command line for the account at
// accountIndex running on the JVM at jvmIndex.
//
// It requires a resolved version plus the class path and jar path
// produced by the library and jar pipelines; the host gates the call on
// all three download pipelines succeeding. Placeholders in the version's
// argument templates (${auth_player_name}, ${classpath}, ...) are
// substituted; both the modern arguments form and the legacy
// minecraftArguments form are supported.
func (s *State) LaunchCommand(accountIndex, jvmIndex int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.version == nil {
		return nil, errs.Newf(errs.KindPrecondition, "launch", "no version resolved")
	}
	if s.classPath == "" || s.jarPath == "" {
		return nil, errs.Newf(errs.KindPrecondition, "launch", "downloads not complete")
	}
	if accountIndex < 0 || accountIndex >= len(s.data.Accounts) {
		return nil, errs.Newf(errs.KindPrecondition, "launch", "account index %d out of range", accountIndex)
	}
	if jvmIndex < 0 || jvmIndex >= len(s.data.JVMs) {
		return nil, errs.Newf(errs.KindPrecondition, "launch", "jvm index %d out of range", jvmIndex)
	}

	account := &s.data.Accounts[accountIndex]
	version := s.version
	classPath := s.classPath + string(os.PathListSeparator) + s.jarPath
	nativesDir := filepath.Join(s.settings.NativesDir(), version.ID)

	vars := map[string]string{
		"auth_player_name":  account.Profile.Name,
		"auth_uuid":         account.Profile.ID,
		"auth_access_token": account.AccessToken,
		"auth_session":      account.AccessToken,
		"user_type":         "msa",
		"user_properties":   "{}",
		"version_name":      version.ID,
		"version_type":      version.Type,
		"game_directory":    s.settings.RootDir,
		"assets_root":       s.settings.AssetsDir(),
		"game_assets":       filepath.Join(s.settings.AssetsDir(), "virtual", "legacy"),
		"assets_index_name": version.AssetIndex.ID,
		"natives_directory": nativesDir,
		"launcher_name":     s.settings.LauncherName,
		"launcher_version":  s.settings.LauncherVersion,
		"classpath":         classPath,
	}

	osName := meta.OSName(runtime.GOOS)
	arch := meta.ArchName(runtime.GOARCH)

	cmd := []string{s.data.JVMs[jvmIndex].Path}
	cmd = append(cmd, jvmArguments(version, vars, osName, arch)...)
	cmd = append(cmd, version.MainClass)
	cmd = append(cmd, gameArguments(version, vars, osName, arch)...)
	return cmd, nil
}

// jvmArguments expands the version's JVM argument templates, or
// synthesizes the classic pair for versions predating the arguments form.
func jvmArguments(version *meta.VersionMeta, vars map[string]string, osName, arch string) []string {
	if version.Arguments == nil {
		return []string{
			substitute("-Djava.library.path=${natives_directory}", vars),
			"-cp",
			vars["classpath"],
		}
	}
	var out []string
	for i := range version.Arguments.JVM {
		for _, v := range version.Arguments.JVM[i].Expand(osName, arch) {
			out = append(out, substitute(v, vars))
		}
	}
	return out
}

// gameArguments expands the version's game argument templates, falling
// back to the legacy space-separated minecraftArguments string.
func gameArguments(version *meta.VersionMeta, vars map[string]string, osName, arch string) []string {
	if version.Arguments != nil {
		var out []string
		for i := range version.Arguments.Game {
			for _, v := range version.Arguments.Game[i].Expand(osName, arch) {
				out = append(out, substitute(v, vars))
			}
		}
		return out
	}
	var out []string
	for _, v := range strings.Fields(version.MinecraftArguments) {
		out = append(out, substitute(v, vars))
	}
	return out
}

// substitute expands ${name} placeholders from vars; unknown names
// expand to the empty string, matching upstream launcher behavior.
func substitute(template string, vars map[string]string) string {
	return os.Expand(template, func(name string) string {
		return vars[name]
	})
}
