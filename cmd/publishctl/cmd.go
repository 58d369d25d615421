package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{migrateCommand(r), userCommand(r), jobsCommand(r)}
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Create or upgrade the PostgreSQL schema",
		Action: r.Migrate,
	}
}

func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "User management",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a user and print it as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "email", Usage: "Email address"},
					&cli.BoolFlag{Name: "verified", Usage: "Mark the email as verified"},
				},
				Action: r.CreateUser,
			},
		},
	}
}

func idFlag() cli.Flag {
	return &cli.StringFlag{Name: "id", Usage: "Publish job ID", Required: true}
}

func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Inspect and operate the publish queue",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List publish jobs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Comma separated statuses, e.g. PENDING,FAILED"},
					&cli.StringFlag{Name: "user", Usage: "Only jobs created by this user ID"},
					&cli.StringFlag{Name: "video", Usage: "Only jobs for this video ID"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of jobs", Value: 20},
					&cli.IntFlag{Name: "offset", Usage: "Jobs to skip"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.StringFlag{Name: "csv", Usage: "Write the jobs to this CSV file instead of stdout"},
				},
				Action: r.ListJobs,
			},
			{
				Name:   "stats",
				Usage:  "Count jobs per status",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "user", Usage: "Only jobs created by this user ID"}},
				Action: r.JobStats,
			},
			{
				Name:   "retry",
				Usage:  "Put a FAILED job back in the queue",
				Flags:  []cli.Flag{idFlag()},
				Action: r.RetryJob,
			},
			{
				Name:   "cancel",
				Usage:  "Cancel a PENDING job",
				Flags:  []cli.Flag{idFlag()},
				Action: r.CancelJob,
			},
			{
				Name:   "process",
				Usage:  "Run one worker batch now",
				Flags:  []cli.Flag{&cli.IntFlag{Name: "batch", Usage: "Jobs to claim (0 uses worker.batchSize)"}},
				Action: r.ProcessJobs,
			},
			{
				Name:   "requeue-stale",
				Usage:  "Return PROCESSING jobs older than worker.staleAfter to PENDING",
				Action: r.RequeueStale,
			},
		},
	}
}
