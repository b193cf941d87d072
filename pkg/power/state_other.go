//go:build !linux

package power

// SysfsRoot is empty off Linux.
const SysfsRoot = ""

// ReadState is not available off Linux.
func ReadState(string) (State, error) {
	return Default(), ErrUnsupported
}
