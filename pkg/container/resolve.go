package container

import (
	"strings"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

// Resolve implements the name/ID resolution rule: a token matches a
// record iff the record's id has the token as a prefix, or the record's
// name equals the token exactly. Ties resolve to the first match in
// enumeration order.
func Resolve(records []Record, token string) (*Record, error) {
	for i := range records {
		r := &records[i]
		if !r.IsOwned() {
			continue
		}
		if strings.HasPrefix(r.ID, token) || r.Name == token {
			return r, nil
		}
	}
	return nil, vterrors.Newf(vterrors.ContainerNotFound, "no container matches %q", token)
}
