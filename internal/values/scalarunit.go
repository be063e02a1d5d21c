// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package values

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/dlclark/regexp2"
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/specialistvlad/toscago/internal/tosca"
	"github.com/zclconf/go-cty/cty"
)

// Unit factors relative to the base unit of each scalar-unit type: bytes,
// seconds and hertz. Lookups are case-insensitive.
var scalarUnits = map[string]map[string]float64{
	tosca.TypeSizeUnit: {
		"b":   1,
		"kb":  1e3,
		"kib": 1 << 10,
		"mb":  1e6,
		"mib": 1 << 20,
		"gb":  1e9,
		"gib": 1 << 30,
		"tb":  1e12,
		"tib": 1 << 40,
	},
	tosca.TypeTimeUnit: {
		"d":  86400,
		"h":  3600,
		"m":  60,
		"s":  1,
		"ms": 1e-3,
		"us": 1e-6,
		"ns": 1e-9,
	},
	tosca.TypeFrequencyUnit: {
		"hz":  1,
		"khz": 1e3,
		"mhz": 1e6,
		"ghz": 1e9,
	},
}

var scalarUnitPattern = regexp2.MustCompile(`\A\s*([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)\s*([A-Za-z]+)\s*\z`, regexp2.None)

// parseScalarUnit normalises a scalar-unit value to its base unit. A bare
// number is taken to be in the base unit already, which is how plan dumps
// write these values.
func parseScalarUnit(typeName string, node *raw.Node) (cty.Value, error) {
	switch n := node.Value.(type) {
	case int64:
		return cty.NumberIntVal(n), nil
	case float64:
		return cty.NumberFloatVal(n), nil
	case string:
		m, err := scalarUnitPattern.FindStringMatch(n)
		if err != nil || m == nil {
			return cty.NilVal, fmt.Errorf("%q is not a valid %s", n, typeName)
		}
		number, unit := m.GroupByNumber(1).String(), m.GroupByNumber(2).String()
		factor, ok := scalarUnits[typeName][strings.ToLower(unit)]
		if !ok {
			return cty.NilVal, fmt.Errorf("%q has an unknown %s unit %q", n, typeName, unit)
		}
		f, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return cty.NilVal, fmt.Errorf("%q is not a valid %s: %w", n, typeName, err)
		}
		return cty.NumberFloatVal(f * factor), nil
	}
	return cty.NilVal, fmt.Errorf("expected %s, found %s", typeName, node.Kind)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -07:00",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// parseTimestamp accepts RFC 3339 and the space-separated YAML timestamp
// forms.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func parseVersion(s string) (*semver.Version, error) {
	return semver.NewVersion(s)
}
