package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	logRepo "github.com/blankon/cidash/internal/logarchive/repo"
	logService "github.com/blankon/cidash/internal/logarchive/service"
	"github.com/blankon/cidash/internal/logstream"
)

func logArchive() *logService.LogService {
	return logService.NewLogService(logRepo.NewFileRepo(cidashConfig.Storage.LogDir()))
}

// printLines prints every appended line as it arrives.
func printLines(w io.Writer) logstream.AppendFunc {
	return func(index int, line string) {
		fmt.Fprintln(w, line)
	}
}

func consoleCommand(c *cli.Context) (err error) {
	buildUUID := c.Args().First()
	if buildUUID == "" {
		return errors.New("build uuid should not be empty")
	}
	selection, err := logstream.ParseSelection(c.String("lines"))
	if err != nil {
		return err
	}
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buf := logstream.NewBuffer()
	buf.SetAutoscroll(selection.IsZero(), printLines(os.Stdout))

	req := logstream.Request{UUID: buildUUID, Logfile: c.String("logfile")}
	if err = uc.StreamConsole(ctx, req, buf); err != nil {
		return err
	}

	if !selection.IsZero() {
		for _, line := range selection.Apply(buf.LogLines()) {
			fmt.Printf("%6d  %s\n", line.Index, line.Text)
		}
	}
	path := c.String("save")
	if path == "" && c.Bool("archive") {
		if path, err = logArchive().PathFor(buildUUID); err != nil {
			return err
		}
	}
	if path != "" {
		if err = buf.Save(path); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Saved to "+path)
	}
	return nil
}

func logsCommand(c *cli.Context) (err error) {
	list, err := logArchive().GetLogList(int64(c.Int("page")), int64(c.Int("rows")))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tSAVED")
	for _, saved := range list.Logs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", saved.Name, saved.SizeH, humanize.Time(saved.ModTime))
	}
	if err = tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d saved logs in %s\n", list.TotalData, cidashConfig.Storage.LogDir())
	return nil
}

func tailCommand(c *cli.Context) (err error) {
	path := c.Args().First()
	if path == "" {
		return errors.New("log file path should not be empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buf := logstream.NewBuffer()
	buf.SetAutoscroll(true, printLines(os.Stdout))
	return logstream.Follow(ctx, path, buf, c.Bool("follow"))
}
