package container

import "strconv"

// BuildLabels constructs the standard label set the supervisor attaches
// to every container it creates, so later List/Resolve calls can tell
// which containers this launcher owns and which transport each uses.
func BuildLabels(name, transport string, port int) map[string]string {
	return map[string]string{
		"vibetool":           "true",
		"vibetool-name":      name,
		"vibetool-transport": transport,
		"vibetool-port":      strconv.Itoa(port),
	}
}

// Transport returns the vibetool-transport label value, or "" if absent.
func Transport(labels map[string]string) string {
	return labels["vibetool-transport"]
}
