package utilities

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Version is git commit or release tag from which this binary was built.
var Version string

// InitVersionMetrics records the components of Version as gauges. Versions
// that are not semver (e.g. a bare commit hash) are recorded as 0.0.0.
func InitVersionMetrics(ctx context.Context) error {
	vi, err := parseSemver(Version)
	if err != nil {
		vi = &versionInfo{Original: Version}
	}

	return recordVersion(ctx, vi, otel.Meter("siws").Int64Gauge)
}

type gaugeFunc func(name string, options ...metric.Int64GaugeOption) (metric.Int64Gauge, error)

func recordVersion(ctx context.Context, vi *versionInfo, newGauge gaugeFunc) error {
	parts := []struct {
		typ string
		val uint64
	}{
		{"major", vi.Major},
		{"minor", vi.Minor},
		{"patch", vi.Patch},
		{"rc", vi.RC},
	}

	var errs []error
	for _, part := range parts {
		if part.val > math.MaxInt64 {
			errs = append(errs, fmt.Errorf("version %v: value is > math.MaxInt64", part.typ))
			continue
		}

		g, err := newGauge(
			"siws_version_"+part.typ,
			metric.WithDescription("Set to this server's "+part.typ+" version number."),
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("version %v: %w", part.typ, err))
			continue
		}

		g.Record(ctx, int64(part.val))
	}

	return errors.Join(errs...)
}

type versionInfo struct {
	Original string
	Major    uint64
	Minor    uint64
	Patch    uint64
	RC       uint64
}

func parseSemver(ver string) (*versionInfo, error) {
	vi := &versionInfo{
		Original: ver,
	}

	sv, err := semver.NewVersion(normalizeVersion(ver))
	if err != nil {
		return nil, err
	}

	if pre, ok := strings.CutPrefix(sv.Prerelease(), "rc"); ok {
		pre = strings.TrimLeft(pre, ".-")
		if i := strings.IndexAny(pre, ".-"); i >= 0 {
			pre = pre[:i]
		}

		if rc, err := strconv.ParseUint(pre, 10, 64); err == nil {
			vi.RC = rc
		}
	}

	vi.Major = sv.Major()
	vi.Minor = sv.Minor()
	vi.Patch = sv.Patch()
	return vi, nil
}

func normalizeVersion(ver string) string {
	ver = strings.TrimSpace(ver)
	if strings.HasPrefix(ver, "v") {
		return ver
	}
	if rest, ok := strings.CutPrefix(ver, "rc"); ok {
		return "v" + rest
	}
	return "v" + ver
}
