package layout

import (
	"github.com/matzehuels/familytree/pkg/errors"
)

// Default spacing values, in layout units.
const (
	DefaultColumnWidth = 100.0
	DefaultRowHeight   = 100.0
	DefaultZ           = 1.0
)

// Options controls coordinate assignment.
// Zero values are replaced by the defaults, so a zero spacing or a z of 0
// cannot be configured; use a small non-zero value instead.
type Options struct {
	ColumnWidth float64 `json:"column_width,omitempty" toml:"column_width"`
	RowHeight   float64 `json:"row_height,omitempty" toml:"row_height"`
	Z           float64 `json:"z,omitempty" toml:"z"`
}

// SetDefaults fills zero-valued fields. Z of 0 becomes DefaultZ.
func (o *Options) SetDefaults() {
	if o.ColumnWidth == 0 {
		o.ColumnWidth = DefaultColumnWidth
	}
	if o.RowHeight == 0 {
		o.RowHeight = DefaultRowHeight
	}
	if o.Z == 0 {
		o.Z = DefaultZ
	}
}

// Validate applies defaults and rejects negative spacing.
func (o *Options) Validate() error {
	o.SetDefaults()
	if o.ColumnWidth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "column width must not be negative: %g", o.ColumnWidth)
	}
	if o.RowHeight < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "row height must not be negative: %g", o.RowHeight)
	}
	return nil
}
