package tiledata

import (
	"fmt"
	"strconv"
	"strings"
)

// ClientVersion is a dotted client version packed as major.minor.revision.patch,
// one byte each, so versions compare with the usual operators.
type ClientVersion uint32

// VersionNewTileData is the first client whose tiledata.mul carries 64-bit flags.
const VersionNewTileData ClientVersion = 7<<24 | 0<<16 | 9<<8 | 0

// ParseClientVersion parses "7.0.15.1" style strings. Missing trailing parts
// are zero, so "7.0" equals "7.0.0.0".
func ParseClientVersion(s string) (ClientVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 4 || parts[0] == "" {
		return 0, fmt.Errorf("invalid client version %q", s)
	}

	var v ClientVersion
	for i := 0; i < 4; i++ {
		var n uint64
		if i < len(parts) {
			var err error
			n, err = strconv.ParseUint(parts[i], 10, 8)
			if err != nil {
				return 0, fmt.Errorf("invalid client version %q: %w", s, err)
			}
		}
		v = v<<8 | ClientVersion(n)
	}
	return v, nil
}

// String returns the dotted form.
func (v ClientVersion) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v>>24, v>>16&0xFF, v>>8&0xFF, v&0xFF)
}
