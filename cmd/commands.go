package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	service "github.com/okian/skillmatch/internal/app"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/internal/domain/users"
	"github.com/okian/skillmatch/internal/seed"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errSeedSource = errors.New("seed: exactly one of --file or --random is required")

func (c *cli) matchesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "matches <viewer-id>",
		Short: "Rank mutual skill-exchange candidates for a viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				resp, err := svc.FindMatches(ctx, args[0], limit)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of candidates to return (0 uses default_limit)")
	return cmd
}

func (c *cli) detailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "details <candidate-id> <viewer-id>",
		Short: "Show a candidate with the skills they share with the viewer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				d, err := svc.GetCandidateDetails(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), d)
			})
		},
	}
}

func (c *cli) swipeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "swipe <viewer-id> <candidate-id> <declined|offered>",
		Short: "Record a swipe",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := model.ParseSwipeStatus(args[2])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if err := svc.RecordSwipe(ctx, args[0], args[1], status); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"viewer_id":    args[0],
					"candidate_id": args[1],
					"status":       string(status),
				})
			})
		},
	}
}

func (c *cli) createUserCmd() *cobra.Command {
	var (
		file string
		req  users.CreateUserRequest
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Onboard a user from flags or a YAML/JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				loaded, err := readUserRequest(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				req = loaded
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				u, err := svc.CreateUser(ctx, req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), u)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "request file; - reads stdin")
	f.StringVar(&req.ID, "id", "", "identity-provider id (generated when empty)")
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.Birthdate, "birthdate", "", "birthdate as YYYY-MM-DD")
	f.StringVar(&req.Gender, "gender", "", "M, F or O")
	f.StringVar(&req.TZName, "tz", "", "IANA timezone name")
	f.StringVar(&req.LinkedInURL, "linkedin", "", "LinkedIn profile URL to enrich")
	f.StringSliceVar(&req.SkillsToTeach, "teach", nil, "skills the user teaches")
	f.StringSliceVar(&req.SkillsToLearn, "learn", nil, "skills the user wants to learn")
	return cmd
}

// readUserRequest decodes a create-user request. JSON is valid YAML, so one
// decoder serves both.
func readUserRequest(stdin io.Reader, path string) (users.CreateUserRequest, error) {
	var req users.CreateUserRequest
	r := stdin
	if path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("open request: %w", err)
		}
		defer fh.Close()
		r = fh
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("decode request %s: %w", path, err)
	}
	return req, nil
}

func (c *cli) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <user-id>",
		Short: "Show a user and whether they finished onboarding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				p, err := svc.GetProfile(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), p)
			})
		},
	}
}

func (c *cli) skillsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skills",
		Short: "List the skill catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				skills, err := svc.ListSkills(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), skills)
			})
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the datastore schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if err := svc.Store().Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				logger.Get().Info(ctx, "schema is up to date")
				return nil
			})
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	var (
		file      string
		random    int
		rngSeed   uint64
		printOnly bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a fixture file or a generated population",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (file == "") == (random <= 0) {
				return errSeedSource
			}
			now := time.Now().UTC()

			var (
				f   *seed.Fixture
				err error
			)
			if file != "" {
				f, err = seed.LoadFile(file)
				if err != nil {
					return err
				}
			} else {
				f = seed.Generate(random, rngSeed, now)
			}

			if printOnly {
				return seed.Write(cmd.OutOrStdout(), f)
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				stats, err := seed.Apply(ctx, svc.Store(), f, now, logger.Named("seed"))
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&file, "file", "f", "", "fixture YAML file")
	fl.IntVar(&random, "random", 0, "generate this many synthetic users")
	fl.Uint64Var(&rngSeed, "seed", 1, "generator seed for --random")
	fl.BoolVar(&printOnly, "print", false, "write the fixture as YAML to stdout instead of applying it")
	return cmd
}
