// Package version exposes the build's commit, read from debug.BuildInfo
// unless overridden with -ldflags "-X chatgw/chatgw/version.gitCommitOverride=...".
package version

import "runtime/debug"

const AppName = "chatgw"

var gitCommitOverride string

// GitCommit is the short commit hash, or "dev" when no VCS info is embedded.
var GitCommit = initGitCommit()

func initGitCommit() string {
	if gitCommitOverride != "" {
		return short(gitCommitOverride)
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return short(s.Value)
		}
	}
	return "dev"
}

func short(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

// Full returns "chatgw/<commit>" for user agents and the service info route.
func Full() string {
	return AppName + "/" + GitCommit
}
