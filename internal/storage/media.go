package storage

import (
	"errors"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var versionSegment = regexp.MustCompile(`^v\d+$`)

// DeriveKey maps a retrieval URL back to the object key it was stored under.
//
// Hosted URLs carry the key after an optional version segment (e.g.
// .../v1743130580/farman-pharma/report.pdf). When no version segment is
// present the key is the folder-prefixed tail of the path; a bare filename is
// assumed to live under the given folder.
func DeriveKey(rawURL, folder string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", errors.New("url has no path")
	}

	for i, segment := range segments {
		if versionSegment.MatchString(segment) && i+1 < len(segments) {
			return decodeSegments(segments[i+1:]), nil
		}
	}

	folder = strings.Trim(folder, "/")
	if folder != "" {
		for i, segment := range segments {
			if segment == folder {
				return decodeSegments(segments[i:]), nil
			}
		}
		// Bare filename: assume it lives under the configured folder.
		return folder + "/" + decodeSegments(segments[len(segments)-1:]), nil
	}

	return decodeSegments(segments[len(segments)-1:]), nil
}

// KeyVariants returns the lookup keys to try when deleting, in order: the key
// as derived, then with spaces as underscores, percent-encoded spaces, and
// underscores as literal spaces. Upload sanitization historically flattened
// spaces to underscores while some stored URLs kept %20 or a literal space,
// so the stored object name can differ from the derived key in exactly these
// ways.
func KeyVariants(key string) []string {
	variants := []string{
		key,
		strings.ReplaceAll(key, " ", "_"),
		strings.ReplaceAll(key, " ", "%20"),
		strings.ReplaceAll(key, "_", " "),
	}

	seen := make(map[string]struct{}, len(variants))
	unique := variants[:0]
	for _, v := range variants {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	return unique
}

// ObjectName builds a collision-free object name from an uploaded filename,
// keeping the extension and flattening whitespace the way the media host
// expects.
func ObjectName(filename string) string {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(path.Base(filename), ext)
	base = strings.Join(strings.Fields(base), "_")
	if base == "" {
		base = "upload"
	}
	return base + "-" + uuid.NewString() + ext
}

func decodeSegments(segments []string) string {
	decoded := make([]string, len(segments))
	for i, segment := range segments {
		if unescaped, err := url.PathUnescape(segment); err == nil {
			decoded[i] = unescaped
		} else {
			decoded[i] = segment
		}
	}
	return strings.Join(decoded, "/")
}
