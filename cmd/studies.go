package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lambda-feedback/studyboard/config"
	"github.com/lambda-feedback/studyboard/storage"
	"github.com/lambda-feedback/studyboard/util/conf"
	"github.com/lambda-feedback/studyboard/util/logging"
)

var (
	studiesCmdDescription = `The studies command opens the configured storage backend and
prints a summary of every study it holds. This is mostly
useful with the journal backend, to inspect a journal file
without starting the server.`
	studiesCmd = &cli.Command{
		Name:        "studies",
		Usage:       "List the studies in the configured storage.",
		Description: studiesCmdDescription,
		Action:      studiesAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored output.",
			},
		},
	}
)

func studiesAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return err
	}

	if ctx.Bool("no-color") {
		color.NoColor = true
	}

	s, err := storage.New(cfg.Storage, log.Named("storage"))
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("failed to close storage", zap.Error(err))
		}
	}()

	return printStudies(ctx.Context, os.Stdout, s)
}

func printStudies(ctx context.Context, w io.Writer, s storage.Storage) error {
	studies, err := s.GetAllStudies(ctx)
	if err != nil {
		return err
	}

	if len(studies) == 0 {
		fmt.Fprintln(w, "no studies")
		return nil
	}

	id := color.New(color.Faint)
	name := color.New(color.FgCyan, color.Bold)
	state := color.New(color.FgGreen)

	for _, study := range studies {
		trials, err := s.GetAllTrials(ctx, study.StudyID)
		if err != nil {
			return err
		}

		directions := make([]string, len(study.Directions))
		for i, d := range study.Directions {
			directions[i] = d.String()
		}

		counts := map[storage.TrialState]int{}
		for _, trial := range trials {
			counts[trial.State]++
		}

		id.Fprintf(w, "%4d ", study.StudyID)
		name.Fprint(w, study.StudyName)
		fmt.Fprintf(w, " [%s] trials=%d", strings.Join(directions, ","), len(trials))
		if n := counts[storage.TrialStateComplete]; n > 0 {
			state.Fprintf(w, " complete=%d", n)
		}
		fmt.Fprintln(w)
	}

	return nil
}

func init() {
	rootApp.Commands = append(rootApp.Commands, studiesCmd)
}
