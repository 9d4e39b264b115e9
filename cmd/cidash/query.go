package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	"github.com/blankon/cidash/internal/dashboard/usecase"
	"github.com/blankon/cidash/internal/entity"
	"github.com/blankon/cidash/internal/filter"
	"github.com/blankon/cidash/internal/queue"
	"github.com/blankon/cidash/internal/store"
)

var timeNow = time.Now

// loaded unwraps a stale fallback into a warning.
func loaded(err error) error {
	var stale *usecase.StaleError
	if errors.As(err, &stale) {
		fmt.Fprintln(os.Stderr, "warning: "+stale.Error())
		return nil
	}
	return err
}

func statusCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	if c.Bool("watch") {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		watchStatus(ctx, uc, c.Duration("interval"), func(pipelines []queue.PipelineView) {
			fmt.Print("\033[H\033[2J")
			renderStatus(os.Stdout, pipelines, c.String("pipeline"), c.Int("width"))
		})
		return nil
	}
	_, err = uc.LoadStatus(context.Background())
	if err = loaded(err); err != nil {
		return err
	}
	pipelines, err := uc.StatusView(timeNow())
	if err != nil {
		return err
	}
	renderStatus(os.Stdout, pipelines, c.String("pipeline"), c.Int("width"))
	return nil
}

// watchStatus polls the status every interval and calls render each time a
// new status lands in the store, until ctx is done.
func watchStatus(ctx context.Context, uc *usecase.DashboardUsecase, interval time.Duration, render func([]queue.PipelineView)) {
	changed := make(chan struct{}, 1)
	var last *entity.Status
	unsubscribe := uc.Store.Subscribe(func(state store.State) {
		if state.Status == nil || state.Status == last {
			return
		}
		last = state.Status
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	go uc.Run(ctx, interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
		pipelines, err := uc.StatusView(timeNow())
		if err != nil {
			log.Printf("[watchStatus] %v", err)
			continue
		}
		render(pipelines)
	}
}

func renderStatus(w io.Writer, pipelines []queue.PipelineView, only string, width int) {
	for _, pipeline := range pipelines {
		if only != "" && pipeline.Name != only {
			continue
		}
		fmt.Fprintf(w, "%s (%d)\n", pipeline.Name, pipeline.ItemCount)
		for _, q := range pipeline.Queues {
			for _, item := range q.Items {
				fmt.Fprintf(w, "  %s %s %s remaining %s\n",
					queue.RenderText(item.Segments, width),
					item.Item.Title(),
					item.Item.Project,
					queue.FormatOptional(item.Timing.Remaining))
				for _, job := range item.Jobs {
					line := fmt.Sprintf("    %-40s %s", job.Name, job.Category)
					if job.Timing.Elapsed != nil {
						line += " elapsed " + queue.FormatDuration(*job.Timing.Elapsed)
					}
					if job.Timing.Remaining != nil {
						line += " remaining " + queue.FormatDuration(*job.Timing.Remaining)
					}
					if !job.IsVoting() {
						line += " (non-voting)"
					}
					fmt.Fprintln(w, line)
				}
			}
		}
	}
}

// parseFilters reads repeated key=value flags.
func parseFilters(keys []string, raw []string) (filter.Filters, error) {
	filters := filter.New(keys...)
	for _, pair := range raw {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return filters, fmt.Errorf("filter %q should be key=value", pair)
		}
		if err := filters.Add(strings.TrimSpace(key), value); err != nil {
			return filters, fmt.Errorf("filter %q: %w", pair, err)
		}
	}
	return filters, nil
}

type listPrinter func(w io.Writer, uc *usecase.DashboardUsecase, filters filter.Filters) error

func listCommand(keys []string, printList listPrinter) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		filters, err := parseFilters(keys, c.StringSlice("filter"))
		if err != nil {
			return err
		}
		uc, err := tenantUsecase(cidashConfig)
		if err != nil {
			return err
		}
		return printList(os.Stdout, uc, filters)
	}
}

func printBuilds(w io.Writer, uc *usecase.DashboardUsecase, filters filter.Filters) error {
	builds, err := uc.LoadBuilds(context.Background(), filters)
	if err = loaded(err); err != nil {
		return err
	}
	writeBuilds(w, builds)
	return nil
}

func writeBuilds(w io.Writer, builds []entity.Build) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UUID\tJOB\tPROJECT\tCHANGE\tPIPELINE\tDURATION\tSTARTED\tRESULT")
	for _, build := range builds {
		duration := ""
		if elapsed, ok := build.Elapsed(); ok {
			duration = queue.FormatDuration(elapsed)
		}
		started := ""
		if build.StartTime != nil && !build.StartTime.IsZero() {
			started = humanize.Time(build.StartTime.Time)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			build.UUID, build.JobName, build.Project, build.ChangeLabel(),
			build.Pipeline, duration, started, build.ResultLabel())
	}
	tw.Flush()
}

func printBuildsets(w io.Writer, uc *usecase.DashboardUsecase, filters filter.Filters) error {
	buildsets, err := uc.LoadBuildsets(context.Background(), filters)
	if err = loaded(err); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UUID\tPROJECT\tBRANCH\tPIPELINE\tREF\tRESULT")
	for _, buildset := range buildsets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			buildset.UUID, buildset.Project, buildset.Branch,
			buildset.Pipeline, buildset.Ref, buildset.ResultLabel())
	}
	return tw.Flush()
}

func buildCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	build, err := uc.LoadBuild(context.Background(), c.Args().First())
	if err = loaded(err); err != nil {
		return err
	}

	writeBuilds(os.Stdout, []entity.Build{build})
	if build.LogURL != nil {
		fmt.Println("Logs: " + *build.LogURL)
	}
	if manifest, ok := build.ManifestURL(); ok {
		fmt.Println("Manifest: " + manifest)
	}
	if build.ErrorDetail != nil {
		fmt.Println("Error: " + *build.ErrorDetail)
	}
	return nil
}

func buildsetCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	buildset, err := uc.LoadBuildset(context.Background(), c.Args().First())
	if err = loaded(err); err != nil {
		return err
	}
	writeBuildset(os.Stdout, buildset)
	return nil
}

func writeBuildset(w io.Writer, buildset entity.Buildset) {
	fmt.Fprintf(w, "%s %s %s %s %s\n",
		buildset.UUID, buildset.Project, buildset.Pipeline, buildset.Ref, buildset.ResultLabel())
	if buildset.Message != nil {
		fmt.Fprintln(w, firstLine(*buildset.Message))
	}
	if len(buildset.Builds) > 0 {
		fmt.Fprintln(w)
		writeBuilds(w, buildset.Builds)
	}
}

func jobCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	variants, err := uc.LoadJob(context.Background(), c.Args().First())
	if err = loaded(err); err != nil {
		return err
	}
	writeJob(os.Stdout, variants)
	return nil
}

func writeJob(w io.Writer, variants []entity.JobDefinition) {
	for _, job := range variants {
		fmt.Fprintln(w, job.Name)
		if job.Description != nil {
			fmt.Fprintln(w, "  "+firstLine(*job.Description))
		}
		if len(job.Tags) > 0 {
			fmt.Fprintln(w, "  tags: "+strings.Join(job.Tags, ", "))
		}
		for _, variant := range job.Variants {
			line := "  variant"
			if variant.Parent != nil {
				line += " parent=" + *variant.Parent
			}
			if len(variant.Branches) > 0 {
				line += " branches=" + strings.Join(variant.Branches, ",")
			}
			fmt.Fprintln(w, line)
		}
	}
}

func projectCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	project, err := uc.LoadProject(context.Background(), c.Args().First())
	if err = loaded(err); err != nil {
		return err
	}
	fmt.Printf("%s (%s, %s)\n", project.CanonicalName, project.ConnectionName, project.Type)
	for _, config := range project.Configs {
		for _, pipeline := range config.Pipelines {
			fmt.Printf("  %s %s %s\n", config.DefaultBranch, pipeline.Name, pipeline.Queue)
		}
	}
	return nil
}

func autoholdInfoCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	hold, err := uc.LoadAutohold(context.Background(), c.Args().First())
	if err = loaded(err); err != nil {
		return err
	}
	fmt.Printf("%s %s %s %d/%d %s\n",
		hold.ID, hold.Project, hold.Job, hold.CurrentCount, hold.MaxCount, hold.Reason)
	for _, held := range hold.Nodes {
		fmt.Printf("  %s %s\n", held.Build, strings.Join(held.Nodes, ","))
	}
	return nil
}

func jobsCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	jobs, err := uc.LoadJobs(context.Background())
	if err = loaded(err); err != nil {
		return err
	}
	for _, job := range jobs {
		line := job.Name
		if job.Description != nil {
			line += "\t" + firstLine(*job.Description)
		}
		fmt.Println(line)
	}
	return nil
}

func projectsCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	projects, err := uc.LoadProjects(context.Background())
	if err = loaded(err); err != nil {
		return err
	}
	for _, project := range projects {
		fmt.Println(project.Name)
	}
	return nil
}

func nodesCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	nodes, err := uc.LoadNodes(context.Background())
	if err = loaded(err); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tPROVIDER\tSTATE\tAGE")
	for _, node := range nodes {
		age := ""
		if node.StateTime > 0 {
			age = humanize.Time(time.Unix(int64(node.StateTime), 0))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			node.ID, strings.Join(node.Label, ","), node.Provider, node.State, age)
	}
	return tw.Flush()
}

func labelsCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	labels, err := uc.LoadLabels(context.Background())
	if err = loaded(err); err != nil {
		return err
	}
	for _, label := range labels {
		fmt.Println(label.Name)
	}
	return nil
}

func autoholdsCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	holds, err := uc.LoadAutoholds(context.Background())
	if err = loaded(err); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROJECT\tJOB\tREF FILTER\tCOUNT\tREASON")
	for _, hold := range holds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			hold.ID, hold.Project, hold.Job, hold.RefFilter,
			hold.CurrentCount, hold.MaxCount, hold.Reason)
	}
	return tw.Flush()
}

func configErrorsCommand(c *cli.Context) (err error) {
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return err
	}
	configErrors, err := uc.LoadConfigErrors(context.Background())
	if err = loaded(err); err != nil {
		return err
	}
	if len(configErrors) == 0 {
		fmt.Println("No configuration errors")
		return nil
	}
	for _, configError := range configErrors {
		fmt.Printf("%s %s %s\n%s\n\n",
			configError.Source.Project,
			configError.Source.Branch,
			configError.Source.Path,
			configError.Error)
	}
	return nil
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return line
}
