package attachment

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// OversizeError is returned when a file exceeds MaxSize
type OversizeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *OversizeError) Error() string {
	size, limit := humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit))
	if size == limit {
		size = fmt.Sprintf("%s (%s bytes)", size, humanize.Comma(e.Size))
	}
	return fmt.Sprintf("file %q is %s, the limit is %s", e.Name, size, limit)
}

// UnsupportedTypeError is returned when a file is outside the category allow-list
type UnsupportedTypeError struct {
	Name     string
	MIMEType string
	Category Category
}

func (e *UnsupportedTypeError) Error() string {
	mt := e.MIMEType
	if mt == "" {
		mt = "unknown type"
	}
	return fmt.Sprintf("file %q (%s) is not a supported %s", e.Name, mt, e.Category)
}
