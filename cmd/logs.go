package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/grovetools/runner/pkg/paths"
)

func newDaemonLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Long: `Prints the daemon log file. With --follow, keeps printing new lines and
reopens the file when it is recreated.

Examples:
  # Last 50 lines
  runner daemon logs -n 50

  # Follow the log
  runner daemon logs -f`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			follow, _ := cmd.Flags().GetBool("follow")
			lines, _ := cmd.Flags().GetInt("lines")
			return showLog(cmd, paths.DaemonLogPath(), lines, follow)
		},
	}
	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().IntP("lines", "n", 100, "Number of lines to show from the end of the log (-1 for all)")
	return cmd
}

func showLog(cmd *cobra.Command, path string, lines int, follow bool) error {
	out := cmd.OutOrStdout()

	offset, err := printLastLines(out, path, lines)
	if err != nil && !(os.IsNotExist(err) && follow) {
		return fmt.Errorf("failed to read daemon log: %w", err)
	}
	if !follow {
		return nil
	}

	t, err := tail.TailFile(path, tail.Config{
		Location: &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		ReOpen:   true,
		Follow:   true,
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to follow daemon log: %w", err)
	}
	defer t.Cleanup()

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return t.Stop()
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			fmt.Fprintln(out, line.Text)
		}
	}
}

// printLastLines writes the last n lines of path (all when n < 0) and
// returns the offset just past what was read.
func printLastLines(w io.Writer, path string, n int) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		ring   []string
		offset int64
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		offset += int64(len(scanner.Bytes())) + 1
		if n == 0 {
			continue
		}
		ring = append(ring, line)
		if n > 0 && len(ring) > n {
			ring = ring[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return offset, err
	}
	if info, err := f.Stat(); err == nil && offset > info.Size() {
		offset = info.Size()
	}

	for _, line := range ring {
		fmt.Fprintln(w, line)
	}
	return offset, nil
}
