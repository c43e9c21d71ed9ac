package repo

import "strings"

// InitOptions controls repository initialization arguments.
type InitOptions struct {
	EmptyRepo bool
	Profiles  []string
}

// MergeInitOptions layers overrides over base in increasing precedence. A nil
// override contributes nothing; a non-nil Profiles slice replaces the merged
// set, and EmptyRepo sticks once any layer requests it.
func MergeInitOptions(base InitOptions, overrides ...*InitOptions) InitOptions {
	merged := base
	merged.Profiles = append([]string(nil), base.Profiles...)
	for _, override := range overrides {
		if override == nil {
			continue
		}
		if override.EmptyRepo {
			merged.EmptyRepo = true
		}
		if override.Profiles != nil {
			merged.Profiles = append([]string(nil), override.Profiles...)
		}
	}
	return merged
}

// InitArgs builds the casd init argument list from merged options.
func InitArgs(opts InitOptions) []string {
	args := []string{"init"}
	if opts.EmptyRepo {
		args = append(args, "--empty-repo")
	}
	if len(opts.Profiles) > 0 {
		args = append(args, "--profile", strings.Join(opts.Profiles, ","))
	}
	return args
}

// DaemonArgs builds the long-running daemon argument list.
func DaemonArgs(extra ...string) []string {
	return append([]string{"daemon"}, extra...)
}
