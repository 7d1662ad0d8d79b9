package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"github.com/grovetools/runner/logging"
)

// CobraProfiler adds --cpu-profile, --mem-profile and --timing to a command
// tree.
type CobraProfiler struct {
	cpuProfileFile *os.File
	cpuProfilePath string
	memProfilePath string
	timing         bool
}

// NewCobraProfiler creates a new profiler for Cobra integration.
func NewCobraProfiler() *CobraProfiler {
	return &CobraProfiler{}
}

// AddFlags registers the hidden profiling flags and installs the pre/post
// run hooks on cmd.
func (p *CobraProfiler) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&p.cpuProfilePath, "cpu-profile", "", "Write CPU profile to file")
	flags.StringVar(&p.memProfilePath, "mem-profile", "", "Write memory profile to file")
	flags.BoolVar(&p.timing, "timing", false, "Print a timing summary on exit")
	for _, name := range []string{"cpu-profile", "mem-profile", "timing"} {
		_ = flags.MarkHidden(name)
	}
	cmd.PersistentPreRunE = p.PreRun
	cmd.PersistentPostRun = p.PostRun
}

// PreRun starts profiling according to the flags.
func (p *CobraProfiler) PreRun(cmd *cobra.Command, args []string) error {
	if p.timing {
		Enable()
	}

	if p.cpuProfilePath != "" {
		f, err := os.Create(p.cpuProfilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		p.cpuProfileFile = f
	}
	return nil
}

// PostRun writes the profiles and the timing summary to stderr.
func (p *CobraProfiler) PostRun(cmd *cobra.Command, args []string) {
	logger := logging.NewLogger("profiling")
	stderr := cmd.ErrOrStderr()

	if p.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		p.cpuProfileFile.Close()
		p.cpuProfileFile = nil
		fmt.Fprintf(stderr, "CPU profile written to %s\n", p.cpuProfilePath)
	}

	if p.memProfilePath != "" {
		f, err := os.Create(p.memProfilePath)
		if err != nil {
			logger.WithError(err).Error("Could not create memory profile")
			return
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			logger.WithError(err).Error("Could not write memory profile")
			return
		}
		fmt.Fprintf(stderr, "Memory profile written to %s\n", p.memProfilePath)
	}

	if p.timing {
		Summarize(stderr)
	}
}
