// Package networking selects the host TCP port a transport binds to.
package networking

import (
	"math/rand"
	"net"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

const (
	ephemeralRangeLow  = 49152
	ephemeralRangeHigh = 65535
)

// IsAvailable reports whether a loopback TCP bind on port succeeds.
func IsAvailable(port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// Select implements the port-allocator contract: a requested port (if
// non-zero) is probed directly and either returned or rejected; otherwise
// up to attempts random ports from the ephemeral range are tried.
func Select(requested int, attempts int, log *logrus.Entry) (int, error) {
	if requested > 0 {
		if IsAvailable(requested) {
			return requested, nil
		}
		return 0, vterrors.Newf(vterrors.IO, "port %d is in use", requested)
	}

	for i := 0; i < attempts; i++ {
		candidate := ephemeralRangeLow + rand.Intn(ephemeralRangeHigh-ephemeralRangeLow)
		if IsAvailable(candidate) {
			return candidate, nil
		}
		if log != nil {
			log.WithField("candidate", candidate).Debug("port candidate unavailable, retrying")
		}
	}
	return 0, vterrors.Newf(vterrors.IO, "no available port found after %d attempts", attempts)
}
