package meminfo

// Normalize converts a value with an optional unit suffix ("kB", "MB", "GB",
// "TB", any case) into bytes. An empty or unrecognized suffix leaves the
// value unchanged.
func Normalize(value int64, unit string) int64 {
	if len(unit) != 2 || (unit[1] != 'b' && unit[1] != 'B') {
		return value
	}

	switch unit[0] {
	case 't', 'T':
		value *= 1024
		fallthrough
	case 'g', 'G':
		value *= 1024
		fallthrough
	case 'm', 'M':
		value *= 1024
		fallthrough
	case 'k', 'K':
		value *= 1024
	}
	return value
}

// ValueUnit returns the unit of values normalized from unit: "B" for the
// byte-scaled suffixes, unit itself otherwise.
func ValueUnit(unit string) string {
	if Normalize(1, unit) != 1 {
		return "B"
	}
	return unit
}
