package models

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// SourceProtocol is the scheme a source entry is fetched with
type SourceProtocol string

const (
	ProtoUnknown SourceProtocol = "unknown"
	ProtoLocal   SourceProtocol = "local"
	ProtoFile    SourceProtocol = "file"
	ProtoFtp     SourceProtocol = "ftp"
	ProtoHttp    SourceProtocol = "http"
	ProtoHttps   SourceProtocol = "https"
	ProtoRsync   SourceProtocol = "rsync"
	ProtoBzr     SourceProtocol = "bzr"
	ProtoFossil  SourceProtocol = "fossil"
	ProtoGit     SourceProtocol = "git"
	ProtoHg      SourceProtocol = "hg"
	ProtoSvn     SourceProtocol = "svn"
)

// fragmentKeys lists the fragment types each VCS protocol understands
var fragmentKeys = map[SourceProtocol][]string{
	ProtoBzr:    {"revision"},
	ProtoFossil: {"branch", "commit", "tag"},
	ProtoGit:    {"branch", "commit", "tag"},
	ProtoHg:     {"branch", "revision", "tag"},
	ProtoSvn:    {"revision"},
}

// Fragment is a VCS source fragment declared as url#type=value, selecting
// which revision of the upstream repository to use
type Fragment struct {
	Type  string
	Value string
}

// Source is one parsed entry of a source array
type Source struct {
	// The local file name the source is saved as
	Name string
	// The actual fetch URL, stripped of the proto+ prefix and fragment
	URL string
	Protocol SourceProtocol
	// VCS fragment, nil when none was declared
	Fragment *Fragment
	// Whether a git source asked for signature verification (?signed)
	Signed bool
}

// ParseSource parses a source array entry of the form
// [name::][proto+]url[#fragment][?signed]
func ParseSource(definition string) Source {
	var source Source
	url := definition
	if name, rest, found := strings.Cut(definition, "::"); found {
		source.Name = name
		url = rest
	}

	scheme, _, found := strings.Cut(url, "://")
	if !found {
		// No scheme at all, a file next to the recipe
		source.Protocol = ProtoLocal
		source.URL = url
		if source.Name == "" {
			source.Name = source.fileName()
		}
		return source
	}

	// E.g. git+https://example.com/repo.git: the part before '+' is the
	// protocol, the remainder is the real URL
	if proto, _, plus := strings.Cut(scheme, "+"); plus {
		url = url[len(proto)+1:]
		scheme = proto
	}

	switch scheme {
	case "file":
		source.Protocol = ProtoFile
	case "ftp":
		source.Protocol = ProtoFtp
	case "http":
		source.Protocol = ProtoHttp
	case "https":
		source.Protocol = ProtoHttps
	case "rsync":
		source.Protocol = ProtoRsync
	case "bzr", "fossil", "git", "hg", "svn":
		source.Protocol = SourceProtocol(scheme)
		url = source.takeVCSExtras(url)
	default:
		logrus.Warnf("Unknown source protocol %q in %q", scheme, definition)
		source.Protocol = ProtoUnknown
	}

	source.URL = url
	if source.Name == "" {
		source.Name = source.fileName()
	}
	return source
}

// takeVCSExtras strips the #fragment (and for git the ?signed query) from a
// VCS url, recording what was found, and returns the bare URL
func (s *Source) takeVCSExtras(url string) string {
	if s.Protocol == ProtoGit && strings.Contains(url, "?signed") {
		s.Signed = true
	}
	url, fragment, found := strings.Cut(url, "#")
	if !found {
		if idx := strings.IndexByte(url, '?'); idx >= 0 {
			url = url[:idx]
		}
		return url
	}
	if idx := strings.IndexByte(fragment, '?'); idx >= 0 {
		fragment = fragment[:idx]
	}
	if idx := strings.IndexByte(url, '?'); idx >= 0 {
		url = url[:idx]
	}
	key, value, found := strings.Cut(fragment, "=")
	if !found {
		return url
	}
	for _, known := range fragmentKeys[s.Protocol] {
		if key == known {
			s.Fragment = &Fragment{Type: key, Value: value}
			return url
		}
	}
	logrus.Warnf("Unknown %s fragment type %q", s.Protocol, key)
	return url
}

// fileName derives the local file name from the URL the way the build tool
// does: last path component, with per-VCS adjustments
func (s *Source) fileName() string {
	name := s.URL
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	switch s.Protocol {
	case ProtoBzr:
		if _, rest, found := strings.Cut(name, "lp:"); found {
			name = rest
		}
	case ProtoFossil:
		name += ".fossil"
	case ProtoGit:
		name = strings.TrimSuffix(name, ".git")
	}
	return name
}
