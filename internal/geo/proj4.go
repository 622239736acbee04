package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// Proj4 renders the CRS as a PROJ.4 parameter string. These strings are kept
// for interoperability with older tooling; WKT is the richer representation
// and the one round-tripped through external systems.
func (c CRS) Proj4() string {
	if c.IsGeographic() {
		return "+proj=longlat +datum=WGS84 +no_defs"
	}
	switch c.Projection.Method {
	case "merc":
		return "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +nadgrids=@null +no_defs"
	case "utm":
		var b strings.Builder
		fmt.Fprintf(&b, "+proj=utm +zone=%d", c.Projection.Zone)
		if c.Projection.South {
			b.WriteString(" +south")
		}
		b.WriteString(" +datum=WGS84 +units=m +no_defs")
		return b.String()
	default:
		return ""
	}
}

// ParseProj4 splits a PROJ.4 string into its parameters. Flag parameters
// (+no_defs, +south) map to an empty value.
func ParseProj4(s string) (map[string]string, error) {
	params := make(map[string]string)
	for _, field := range strings.Fields(s) {
		if !strings.HasPrefix(field, "+") {
			return nil, fmt.Errorf("parse proj4: token %q does not start with '+'", field)
		}
		field = field[1:]
		if field == "" {
			return nil, fmt.Errorf("parse proj4: empty parameter")
		}
		key, value, _ := strings.Cut(field, "=")
		params[key] = value
	}
	return params, nil
}

// CRSFromProj4 resolves a PROJ.4 string to a registry CRS. Supported +proj
// values are longlat, merc, and utm.
func CRSFromProj4(s string) (CRS, error) {
	params, err := ParseProj4(s)
	if err != nil {
		return CRS{}, err
	}
	switch params["proj"] {
	case "longlat":
		return LookupEPSG(4326)
	case "merc":
		return LookupEPSG(3857)
	case "utm":
		zone, err := strconv.Atoi(params["zone"])
		if err != nil {
			return CRS{}, fmt.Errorf("parse proj4: invalid +zone=%q", params["zone"])
		}
		if zone < 1 || zone > 60 {
			return CRS{}, fmt.Errorf("parse proj4: zone %d out of range", zone)
		}
		if _, south := params["south"]; south {
			return LookupEPSG(32700 + zone)
		}
		return LookupEPSG(32600 + zone)
	case "":
		return CRS{}, fmt.Errorf("parse proj4: missing +proj")
	default:
		return CRS{}, fmt.Errorf("parse proj4: unsupported +proj=%s", params["proj"])
	}
}
