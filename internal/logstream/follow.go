package logstream

import (
	"context"
	"fmt"

	"github.com/hpcloud/tail"
)

// Follow appends the lines of a local log file to buf. With follow set it
// keeps waiting for new lines until ctx is done; otherwise it stops at the
// end of the file. The buffer ends with EndOfStream either way.
func Follow(ctx context.Context, path string, buf *Buffer, follow bool) error {
	defer buf.Close()

	t, err := tail.TailFile(path, tail.Config{
		Follow:    follow,
		ReOpen:    follow,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Wait()
			}
			if line.Err != nil {
				return line.Err
			}
			buf.Append(line.Text)
		}
	}
}
