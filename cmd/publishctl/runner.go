package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/infrastructure/filecsv"
	"video-publisher/usecase"

	"github.com/urfave/cli/v3"
)

// Runner holds the dependencies of every publishctl command.
type Runner struct {
	users   usecase.IUserUsecase
	jobs    usecase.IPublishJobUsecase
	migrate func(ctx context.Context) error
	output  io.Writer
}

type RunnerOpts struct {
	Users   usecase.IUserUsecase
	Jobs    usecase.IPublishJobUsecase
	Migrate func(ctx context.Context) error
	Output  io.Writer
}

func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{users: opts.Users, jobs: opts.Jobs, migrate: opts.Migrate, output: opts.Output}
}

func (r *Runner) writeJSON(data any) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := fmt.Fprintln(r.output, string(out)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format+"\n", args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	if err := r.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return r.writePlain("schema up to date")
}

func (r *Runner) CreateUser(ctx context.Context, cmd *cli.Command) error {
	req := dto.CreateUserRequest{EmailVerified: cmd.Bool("verified")}
	if v := cmd.String("name"); v != "" {
		req.Name = &v
	}
	if v := cmd.String("email"); v != "" {
		req.Email = &v
	}
	user, err := r.users.Create(ctx, req)
	if err != nil {
		return err
	}
	return r.writeJSON(user)
}

func (r *Runner) ListJobs(ctx context.Context, cmd *cli.Command) error {
	filter := dto.PublishJobFilter{
		Pagination:  dto.Pagination{Limit: int(cmd.Int("limit")), Offset: int(cmd.Int("offset"))},
		CreatedByID: cmd.String("user"),
		VideoID:     cmd.String("video"),
		Desc:        true,
	}
	if raw := cmd.String("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st, err := model.ParseJobStatus(strings.ToUpper(strings.TrimSpace(s)))
			if err != nil {
				return err
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	page, err := r.jobs.List(ctx, filter)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page)
	}
	jobs, _ := page.Items.([]*model.PublishJob)
	if path := cmd.String("csv"); path != "" {
		if err := filecsv.ExportJobs(path, jobs); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		return r.writePlain("wrote %d jobs to %s", len(jobs), path)
	}
	for _, j := range jobs {
		url := ""
		if j.PlatformVideoURL != nil {
			url = *j.PlatformVideoURL
		}
		if err := r.writePlain("%s\t%s\tretries=%d\tvideo=%s\t%s", j.ID, j.Status, j.RetryCount, j.VideoID, url); err != nil {
			return err
		}
	}
	return r.writePlain("%d of %d jobs", len(jobs), page.Total)
}

func (r *Runner) JobStats(ctx context.Context, cmd *cli.Command) error {
	stats, err := r.jobs.Stats(ctx, cmd.String("user"))
	if err != nil {
		return err
	}
	return r.writeJSON(stats)
}

func (r *Runner) RetryJob(ctx context.Context, cmd *cli.Command) error {
	job, err := r.jobs.Retry(ctx, "", cmd.String("id"))
	if err != nil {
		return err
	}
	return r.writePlain("job %s is %s", job.ID, job.Status)
}

func (r *Runner) CancelJob(ctx context.Context, cmd *cli.Command) error {
	job, err := r.jobs.Cancel(ctx, "", cmd.String("id"))
	if err != nil {
		return err
	}
	return r.writePlain("job %s is %s", job.ID, job.Status)
}

func (r *Runner) ProcessJobs(ctx context.Context, cmd *cli.Command) error {
	res, err := r.jobs.ProcessDue(ctx, int(cmd.Int("batch")))
	if err != nil {
		return err
	}
	return r.writePlain("claimed=%d completed=%d retrying=%d failed=%d released=%d", res.Claimed, res.Completed, res.Retrying, res.Failed, res.Released)
}

func (r *Runner) RequeueStale(ctx context.Context, cmd *cli.Command) error {
	n, err := r.jobs.RequeueStale(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("requeued %d stale jobs", n)
}
