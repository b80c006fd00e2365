package cli

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"

	"github.com/example/expressions/log"
)

var profileModes = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"allocs":    profile.MemProfileAllocs,
	"mutex":     profile.MutexProfile,
	"trace":     profile.TraceProfile,
}

type profileConfig struct {
	Profile    string `default:""  enum:",${profileModes}" help:"Write a runtime profile of the command." placeholder:"MODE"`
	ProfileDir string `default:"." help:"Profile output directory."                                   type:"path"`
}

func (profileConfig) vars() kong.Vars {
	return kong.Vars{
		"profileModes": strings.Join(slices.Sorted(maps.Keys(profileModes)), ","),
	}
}

func (profileConfig) group() kong.Group {
	return kong.Group{Key: "profile", Title: "Profiling"}
}

// start starts the selected profile and returns the function stopping it.
func (f profileConfig) start(ctx context.Context) (stop func()) {
	mode, ok := profileModes[f.Profile]
	if !ok {
		return func() {}
	}

	log.DebugContext(ctx, "profile start",
		slog.String("mode", f.Profile),
		slog.String("dir", f.ProfileDir),
	)
	p := profile.Start(mode, profile.ProfilePath(f.ProfileDir), profile.Quiet, profile.NoShutdownHook)

	return func() {
		p.Stop()
		log.DebugContext(ctx, "profile stop", slog.String("mode", f.Profile))
	}
}
