// Package cliutil holds small CLI-input parsing helpers shared by the
// subcommands.
package cliutil

import (
	"strings"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

// ParseEnv parses a list of "KEY=VALUE" entries into a map, splitting on
// the first "=" only so values may themselves contain "=". Later entries
// win on duplicate keys; an entry with no "=" is InvalidArgument.
func ParseEnv(entries []string) (map[string]string, error) {
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		idx := strings.Index(entry, "=")
		if idx < 0 {
			return nil, vterrors.Newf(vterrors.InvalidArgument, "invalid -e entry %q: expected KEY=VALUE", entry)
		}
		key := entry[:idx]
		value := entry[idx+1:]
		out[key] = value
	}
	return out, nil
}
