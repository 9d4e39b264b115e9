package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/blankon/cidash/internal/config"
	"github.com/blankon/cidash/internal/filter"
)

var (
	app     *cli.App
	version string

	cidashConfig config.CidashConfig

	apiURL      string
	tenantName  string
	policyName  string
	assumeYes   bool
	filterFlags cli.StringSlice
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app = cli.NewApp()
	app.Name = "cidash"
	app.Usage = "CI dashboard client"
	app.Author = "BlankOn Developer"
	app.Email = "blankon-dev@googlegroups.com"
	app.Version = version

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "api",
			Destination: &apiURL,
			Usage:       "API url, overrides api.url",
		},
		cli.StringFlag{
			Name:        "tenant",
			Destination: &tenantName,
			Usage:       "Tenant, overrides api.tenant",
		},
	}
	app.Before = func(c *cli.Context) error {
		cidashConfig = loadConfig()
		return nil
	}

	yesFlag := cli.BoolFlag{
		Name:        "yes, y",
		Destination: &assumeYes,
		Usage:       "Do not ask for confirmation",
	}
	filterFlag := cli.StringSliceFlag{
		Name:  "filter, f",
		Value: &filterFlags,
		Usage: "Filter as key=value, repeatable",
	}

	app.Commands = []cli.Command{
		{
			Name:   "config",
			Usage:  "Configure cidash",
			Action: configCommand,
		},
		{
			Name:  "login",
			Usage: "Sign in with an access token",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "token", Usage: "Access token (JWT)"},
				cli.StringFlag{Name: "realm", Usage: "Authentication realm"},
			},
			Action: loginCommand,
		},
		{
			Name:   "logout",
			Usage:  "Forget the stored session",
			Action: logoutCommand,
		},
		{
			Name:   "whoami",
			Usage:  "Show the signed in user",
			Action: whoamiCommand,
		},
		{
			Name:  "status",
			Usage: "Show the pipelines of the tenant",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "policy",
					Destination: &policyName,
					Usage:       "Remaining time policy: strict or computable",
				},
				cli.StringFlag{Name: "pipeline", Usage: "Only show this pipeline"},
				cli.IntFlag{Name: "width", Value: 20, Usage: "Progress bar width"},
				cli.BoolFlag{Name: "watch, w", Usage: "Keep refreshing until interrupted"},
				cli.DurationFlag{Name: "interval", Value: 5 * time.Second, Usage: "Refresh interval with --watch"},
			},
			Action: statusCommand,
		},
		{
			Name:   "builds",
			Usage:  "List builds",
			Flags:  []cli.Flag{filterFlag},
			Action: listCommand(filter.BuildKeys, printBuilds),
		},
		{
			Name:   "buildsets",
			Usage:  "List buildsets",
			Flags:  []cli.Flag{filterFlag},
			Action: listCommand(filter.BuildsetKeys, printBuildsets),
		},
		{
			Name:      "build",
			Usage:     "Show one build",
			ArgsUsage: "<uuid>",
			Action:    buildCommand,
		},
		{
			Name:      "buildset",
			Usage:     "Show one buildset and its builds",
			ArgsUsage: "<uuid>",
			Action:    buildsetCommand,
		},
		{
			Name:      "console",
			Usage:     "Stream the console of a running build",
			ArgsUsage: "<uuid>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "logfile", Usage: "Log file to stream instead of the console"},
				cli.StringFlag{Name: "save", Usage: "Save the received lines to this file"},
				cli.BoolFlag{Name: "archive", Usage: "Save the received lines to the log directory"},
				cli.StringFlag{Name: "lines", Usage: "Only print these lines once the stream ends, e.g. 12-30"},
			},
			Action: consoleCommand,
		},
		{
			Name:      "tail",
			Usage:     "Print a saved console log",
			ArgsUsage: "<path>",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "follow, F", Usage: "Keep waiting for new lines"},
			},
			Action: tailCommand,
		},
		{
			Name:  "logs",
			Usage: "List saved console logs",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "page", Value: 1},
				cli.IntFlag{Name: "rows", Value: 50},
			},
			Action: logsCommand,
		},
		{
			Name:   "jobs",
			Usage:  "List job definitions",
			Action: jobsCommand,
		},
		{
			Name:      "job",
			Usage:     "Show the variants of one job",
			ArgsUsage: "<name>",
			Action:    jobCommand,
		},
		{
			Name:   "projects",
			Usage:  "List projects",
			Action: projectsCommand,
		},
		{
			Name:      "project",
			Usage:     "Show one project",
			ArgsUsage: "<name>",
			Action:    projectCommand,
		},
		{
			Name:   "nodes",
			Usage:  "List test nodes",
			Action: nodesCommand,
		},
		{
			Name:   "labels",
			Usage:  "List node labels",
			Action: labelsCommand,
		},
		{
			Name:   "autoholds",
			Usage:  "List autohold requests",
			Action: autoholdsCommand,
		},
		{
			Name:      "autohold-info",
			Usage:     "Show one autohold request",
			ArgsUsage: "<id>",
			Action:    autoholdInfoCommand,
		},
		{
			Name:   "config-errors",
			Usage:  "List configuration errors",
			Action: configErrorsCommand,
		},
		{
			Name:  "enqueue",
			Usage: "Enqueue a change into a pipeline",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "project"},
				cli.StringFlag{Name: "pipeline"},
				cli.StringFlag{Name: "change", Usage: "Change as number,patchset"},
				yesFlag,
			},
			Action: enqueueCommand,
		},
		{
			Name:  "enqueue-ref",
			Usage: "Enqueue a ref update into a pipeline",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "project"},
				cli.StringFlag{Name: "pipeline"},
				cli.StringFlag{Name: "ref"},
				cli.StringFlag{Name: "oldrev"},
				cli.StringFlag{Name: "newrev"},
				yesFlag,
			},
			Action: enqueueRefCommand,
		},
		{
			Name:  "autohold",
			Usage: "Hold the nodes of the next failing builds of a job",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "project"},
				cli.StringFlag{Name: "job"},
				cli.StringFlag{Name: "change"},
				cli.StringFlag{Name: "ref"},
				cli.StringFlag{Name: "reason"},
				cli.IntFlag{Name: "count", Value: 1},
				cli.IntFlag{Name: "node-hold-expiration", Usage: "Seconds"},
				yesFlag,
			},
			Action: autoholdCommand,
		},
		{
			Name:      "autohold-delete",
			Usage:     "Delete an autohold request",
			ArgsUsage: "<id>",
			Flags:     []cli.Flag{yesFlag},
			Action:    autoholdDeleteCommand,
		},
		{
			Name:  "serve",
			Usage: "Run the web dashboard",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "listen", Usage: "Listen address, overrides dashboard.listen"},
			},
			Action: serveCommand,
		},
		{
			Name:   "update",
			Usage:  "Update the cidash tool",
			Action: updateCommand,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the config file. A missing file is fine as long as
// --api is given.
func loadConfig() config.CidashConfig {
	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = config.Default()
		if apiURL == "" {
			log.Printf("[loadConfig] %v", err)
		}
	}
	if apiURL != "" {
		cfg.API.URL = apiURL
	}
	if tenantName != "" {
		cfg.API.Tenant = tenantName
	}
	return cfg
}
