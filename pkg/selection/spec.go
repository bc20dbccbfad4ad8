package selection

// ConnectSpec is the language version a JSONSelection was parsed under. The
// version gates which arrow methods are available and which syntax forms are
// legal, so connector schemas keep their behavior across language upgrades.
type ConnectSpec int

const (
	// ConnectV1 supports the core method set (echo, map, match, first, last,
	// slice, size, entries) and the classic path syntax.
	ConnectV1 ConnectSpec = iota + 1
	// ConnectV2 adds the extended method set, optional chaining with ?, and
	// $(...) literal expressions in paths.
	ConnectV2
)

// LatestSpec is the version used by Parse when no version is given.
func LatestSpec() ConnectSpec {
	return ConnectV2
}

func (s ConnectSpec) String() string {
	switch s {
	case ConnectV1:
		return "connect/v1"
	case ConnectV2:
		return "connect/v2"
	default:
		return "connect/unknown"
	}
}
