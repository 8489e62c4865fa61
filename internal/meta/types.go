package meta

import (
	"encoding/json"
	"fmt"
)

// ReleaseKind classifies a version in the manifest.
type ReleaseKind int

const (
	Release ReleaseKind = iota
	Snapshot
	OldBeta
	OldAlpha
)

var releaseKindNames = map[ReleaseKind]string{
	Release:  "release",
	Snapshot: "snapshot",
	OldBeta:  "old_beta",
	OldAlpha: "old_alpha",
}

// String returns the manifest wire name of the kind.
func (k ReleaseKind) String() string {
	if name, ok := releaseKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ReleaseKind(%d)", int(k))
}

// MarshalJSON encodes the kind as its wire name.
func (k ReleaseKind) MarshalJSON() ([]byte, error) {
	name, ok := releaseKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown release kind %d", int(k))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a wire name into a kind.
func (k *ReleaseKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for kind, n := range releaseKindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown release kind %q", name)
}

// Manifest is the full version manifest.
type Manifest struct {
	Latest   Latest    `json:"latest"`
	Versions []Version `json:"versions"`
}

// Latest names the newest release and snapshot version IDs.
type Latest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// Version is one descriptor in the manifest.
type Version struct {
	ID          string      `json:"id"`
	Kind        ReleaseKind `json:"type"`
	URL         string      `json:"url"`
	Time        string      `json:"time"`
	ReleaseTime string      `json:"releaseTime"`
}

// LatestRelease returns the descriptor the manifest names as the newest
// release, or nil if the manifest does not list it.
func (m *Manifest) LatestRelease() *Version {
	for i := range m.Versions {
		if m.Versions[i].ID == m.Latest.Release {
			return &m.Versions[i]
		}
	}
	return nil
}

// Merge folds versions present in updated but missing from m into m, and
// adopts updated's latest pointers. Used to refresh a cached manifest
// without dropping versions the upstream may have delisted.
func (m *Manifest) Merge(updated *Manifest) {
	if m.Latest == updated.Latest {
		return
	}
	known := make(map[string]struct{}, len(m.Versions))
	for _, v := range m.Versions {
		known[v.ID] = struct{}{}
	}
	for _, v := range updated.Versions {
		if _, ok := known[v.ID]; !ok {
			m.Versions = append(m.Versions, v)
		}
	}
	m.Latest = updated.Latest
}

// VersionMeta is the full metadata document for one version.
type VersionMeta struct {
	ID                 string        `json:"id"`
	Type               string        `json:"type"`
	MainClass          string        `json:"mainClass"`
	Assets             string        `json:"assets"`
	AssetIndex         AssetIndexRef `json:"assetIndex"`
	Downloads          Downloads     `json:"downloads"`
	Libraries          []Library     `json:"libraries"`
	Arguments          *Arguments    `json:"arguments,omitempty"`
	MinecraftArguments string        `json:"minecraftArguments,omitempty"`
	JavaVersion        *JavaVersion  `json:"javaVersion,omitempty"`
	ReleaseTime        string        `json:"releaseTime"`
	Time               string        `json:"time"`
}

// JarURL returns the client jar download URL.
func (v *VersionMeta) JarURL() string { return v.Downloads.Client.URL }

// JarSHA1 returns the expected client jar hash.
func (v *VersionMeta) JarSHA1() string { return v.Downloads.Client.SHA1 }

// Downloads lists the downloadable artifacts of a version.
type Downloads struct {
	Client Artifact `json:"client"`
	Server Artifact `json:"server,omitempty"`
}

// JavaVersion names the JVM component a version wants.
type JavaVersion struct {
	Component    string `json:"component"`
	MajorVersion int    `json:"majorVersion"`
}

// AssetIndexRef points at the asset index document of a version.
type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize,omitempty"`
	URL       string `json:"url"`
}

// AssetIndex maps asset names to content-addressed objects.
type AssetIndex struct {
	Objects map[string]AssetObject `json:"objects"`
}

// AssetObject is one downloadable asset, addressed by hash.
type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// Artifact is one downloadable file with its expected hash.
type Artifact struct {
	Path string `json:"path,omitempty"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Library is one classpath or native dependency of a version.
type Library struct {
	Name      string            `json:"name"`
	Downloads LibraryDownloads  `json:"downloads"`
	Rules     []Rule            `json:"rules,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Extract   *Extract          `json:"extract,omitempty"`
}

// LibraryDownloads carries the main artifact and any per-OS native
// classifiers.
type LibraryDownloads struct {
	Artifact    *Artifact           `json:"artifact,omitempty"`
	Classifiers map[string]Artifact `json:"classifiers,omitempty"`
}

// Extract configures native-jar extraction.
type Extract struct {
	Exclude []string `json:"exclude,omitempty"`
}
