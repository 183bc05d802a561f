package models

import "testing"

func TestParseSource(t *testing.T) {
	cases := []struct {
		input string
		want  Source
	}{
		{
			"zlib-1.3.1.tar.gz::https://zlib.net/current.tar.gz",
			Source{Name: "zlib-1.3.1.tar.gz", URL: "https://zlib.net/current.tar.gz", Protocol: ProtoHttps},
		},
		{
			"https://zlib.net/zlib-1.3.1.tar.gz",
			Source{Name: "zlib-1.3.1.tar.gz", URL: "https://zlib.net/zlib-1.3.1.tar.gz", Protocol: ProtoHttps},
		},
		{
			"0001-fix-build.patch",
			Source{Name: "0001-fix-build.patch", URL: "0001-fix-build.patch", Protocol: ProtoLocal},
		},
		{
			"git+https://github.com/example/tool.git",
			Source{Name: "tool", URL: "https://github.com/example/tool.git", Protocol: ProtoGit},
		},
		{
			"tool::git+https://github.com/example/tool.git#tag=v1.2.3",
			Source{Name: "tool", URL: "https://github.com/example/tool.git", Protocol: ProtoGit, Fragment: &Fragment{Type: "tag", Value: "v1.2.3"}},
		},
		{
			"git+https://github.com/example/tool.git?signed#commit=abc123",
			Source{Name: "tool", URL: "https://github.com/example/tool.git", Protocol: ProtoGit, Fragment: &Fragment{Type: "commit", Value: "abc123"}, Signed: true},
		},
		{
			"hg+https://hg.example.com/repo#revision=5",
			Source{Name: "repo", URL: "https://hg.example.com/repo", Protocol: ProtoHg, Fragment: &Fragment{Type: "revision", Value: "5"}},
		},
		{
			"fossil+https://fossil.example.com/repo",
			Source{Name: "repo.fossil", URL: "https://fossil.example.com/repo", Protocol: ProtoFossil},
		},
		{
			"ftp://ftp.example.com/dist/tool-1.0.tar.xz",
			Source{Name: "tool-1.0.tar.xz", URL: "ftp://ftp.example.com/dist/tool-1.0.tar.xz", Protocol: ProtoFtp},
		},
	}
	for _, tc := range cases {
		got := ParseSource(tc.input)
		if got.Name != tc.want.Name || got.URL != tc.want.URL ||
			got.Protocol != tc.want.Protocol || got.Signed != tc.want.Signed {
			t.Errorf("ParseSource(%q) = %+v, want %+v", tc.input, got, tc.want)
			continue
		}
		switch {
		case tc.want.Fragment == nil:
			if got.Fragment != nil {
				t.Errorf("ParseSource(%q): unexpected fragment %+v", tc.input, got.Fragment)
			}
		case got.Fragment == nil || *got.Fragment != *tc.want.Fragment:
			t.Errorf("ParseSource(%q): fragment %+v, want %+v", tc.input, got.Fragment, tc.want.Fragment)
		}
	}
}

func TestParseSourceUnknownProtocol(t *testing.T) {
	got := ParseSource("gopher://example.com/thing")
	if got.Protocol != ProtoUnknown {
		t.Errorf("Expected the unknown protocol sentinel, got %q", got.Protocol)
	}
}

func TestParseSourceUnknownFragmentIgnored(t *testing.T) {
	got := ParseSource("git+https://example.com/repo.git#frobnicate=1")
	if got.Fragment != nil {
		t.Errorf("Unknown fragment types must be dropped, got %+v", got.Fragment)
	}
	if got.URL != "https://example.com/repo.git" {
		t.Errorf("Fragment must be stripped from the URL, got %q", got.URL)
	}
}
