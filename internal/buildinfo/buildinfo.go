package buildinfo

// These are typically injected at build time via -ldflags, e.g.
//
//	-X github.com/danieljelinko/alma-tv/internal/buildinfo.Version=v0.1.0
//	-X github.com/danieljelinko/alma-tv/internal/buildinfo.Commit=abcdef
//	-X github.com/danieljelinko/alma-tv/internal/buildinfo.Date=2026-09-01
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}

func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}
