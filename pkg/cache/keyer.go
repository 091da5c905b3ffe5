package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer generates cache keys for derived data.
type Keyer interface {
	// LayoutKey identifies a layout computed from a snapshot.
	LayoutKey(snapshotHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered artifact of a snapshot.
	ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the layout options that change the derived layout.
type LayoutKeyOpts struct {
	ColumnWidth float64 `json:"column_width"`
	RowHeight   float64 `json:"row_height"`
	Z           float64 `json:"z"`
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string        `json:"format"`
	Select   string        `json:"select,omitempty"`
	Detailed bool          `json:"detailed,omitempty"`
	Layout   LayoutKeyOpts `json:"layout"`

	// Revision is set for artifacts that embed the snapshot revision.
	Revision string `json:"revision,omitempty"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<hash of snapshot hash and options>".
func (DefaultKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", snapshotHash, opts)
}

// ArtifactKey returns "artifact:<format>:<hash of snapshot hash and options>".
func (DefaultKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, snapshotHash, opts)
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "<prefix>:<digest>" over the JSON encoding of parts.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
