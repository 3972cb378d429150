package update

import (
	"context"
	"strconv"
	"strings"
)

// ReleasesURL is the GitHub API endpoint for the latest kyou release.
const ReleasesURL = "https://api.github.com/repos/matheuskafuri/kyou/releases/latest"

// JSONGetter fetches and decodes a JSON document.
type JSONGetter interface {
	GetJSON(ctx context.Context, source, url string, v any) error
}

// Result holds the outcome of a version check.
type Result struct {
	LatestVersion string
}

type ghRelease struct {
	TagName string `json:"tag_name"`
}

// Check asks the releases endpoint for the latest tag and reports it when it
// is newer than current. Any failure yields nil; the check is advisory.
func Check(ctx context.Context, getter JSONGetter, url, current string) *Result {
	var release ghRelease
	if err := getter.GetJSON(ctx, "releases", url, &release); err != nil {
		return nil
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if latest == "" || !newer(latest, strings.TrimPrefix(current, "v")) {
		return nil
	}
	return &Result{LatestVersion: latest}
}

// newer compares dotted numeric versions. Development builds ("dev" or any
// non-numeric version) are always older than a tagged release.
func newer(latest, current string) bool {
	lp, ok := parseVersion(latest)
	if !ok {
		return false
	}
	cp, ok := parseVersion(current)
	if !ok {
		return true
	}
	for i := 0; i < max(len(lp), len(cp)); i++ {
		var l, c int
		if i < len(lp) {
			l = lp[i]
		}
		if i < len(cp) {
			c = cp[i]
		}
		if l != c {
			return l > c
		}
	}
	return false
}

func parseVersion(v string) ([]int, bool) {
	// drop pre-release and build metadata
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
