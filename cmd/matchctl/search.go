package main

import (
	"context"
	"errors"
	"fmt"

	"talent-match/internal/domain/matching"
	"talent-match/internal/logger"
	"talent-match/internal/repository"
	"talent-match/internal/usecase"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var errSnapshotRequired = errors.New("snapshot file is required (--snapshot or MATCHCTL_SNAPSHOT)")

func newSearchJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search-jobs",
		Short: "Rank open jobs for a candidate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			candidateID, err := parseIDFlag(cmd, "candidate")
			if err != nil {
				return err
			}
			page, _ := f.GetInt("page")
			size, _ := f.GetInt("size")
			sortBy, _ := f.GetString("sort-by")
			ascending, _ := f.GetBool("ascending")
			location, _ := f.GetString("location")

			var filters matching.Filters
			filters.Location = location
			if f.Changed("salary-min") {
				v, _ := f.GetInt("salary-min")
				filters.SalaryMin = &v
			}
			if f.Changed("salary-max") {
				v, _ := f.GetInt("salary-max")
				filters.SalaryMax = &v
			}
			if filters.RequiredSkillIDs, err = parseIDListFlag(cmd, "skill"); err != nil {
				return err
			}

			uc, log, err := buildMatching(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res, err := uc.SearchJobsForCandidate(cmd.Context(), usecase.JobSearchParams{
				CandidateID: candidateID,
				Page:        page,
				Size:        size,
				SortBy:      matching.ParseSortBy(sortBy),
				Descending:  !ascending,
				Filters:     filters,
			})
			if err != nil {
				return err
			}
			renderPage(cmd.OutOrStdout(), "Jobs for candidate "+candidateID.String(), res, true)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("candidate", "", "candidate id")
	addPagingFlags(cmd)
	f.String("sort-by", string(matching.SortByScore), "score, activity or salary")
	f.Bool("ascending", false, "sort ascending instead of descending")
	f.String("location", "", "location substring filter")
	f.Int("salary-min", 0, "minimum salary filter")
	f.Int("salary-max", 0, "maximum salary filter")
	f.StringSlice("skill", nil, "required taxonomy id filter (repeatable)")
	_ = cmd.MarkFlagRequired("candidate")
	return cmd
}

func newSearchCandidatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search-candidates",
		Short: "Rank active candidates for a job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			jobID, err := parseIDFlag(cmd, "job")
			if err != nil {
				return err
			}
			page, _ := f.GetInt("page")
			size, _ := f.GetInt("size")

			var filters matching.Filters
			if f.Changed("min-experience") {
				v, _ := f.GetInt("min-experience")
				filters.MinExperience = &v
			}
			if f.Changed("max-experience") {
				v, _ := f.GetInt("max-experience")
				filters.MaxExperience = &v
			}
			if f.Changed("education-level") {
				id, err := parseIDFlag(cmd, "education-level")
				if err != nil {
					return err
				}
				filters.EducationLevelID = &id
			}
			if filters.RequiredSkillIDs, err = parseIDListFlag(cmd, "skill"); err != nil {
				return err
			}

			uc, log, err := buildMatching(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res, err := uc.SearchCandidatesForJob(cmd.Context(), usecase.CandidateSearchParams{
				JobID:   jobID,
				Page:    page,
				Size:    size,
				Filters: filters,
			})
			if err != nil {
				return err
			}
			renderPage(cmd.OutOrStdout(), "Candidates for job "+jobID.String(), res, false)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("job", "", "job id")
	addPagingFlags(cmd)
	f.Int("min-experience", 0, "minimum total experience years")
	f.Int("max-experience", 0, "maximum total experience years")
	f.String("education-level", "", "education level id the candidate must hold")
	f.StringSlice("skill", nil, "taxonomy id the candidate must hold (repeatable)")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one candidate against one job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			candidateID, err := parseIDFlag(cmd, "candidate")
			if err != nil {
				return err
			}
			jobID, err := parseIDFlag(cmd, "job")
			if err != nil {
				return err
			}

			uc, log, err := buildMatching(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res, err := uc.CalculateMatch(cmd.Context(), candidateID, jobID)
			if err != nil {
				return err
			}
			renderScore(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().String("candidate", "", "candidate id")
	cmd.Flags().String("job", "", "job id")
	_ = cmd.MarkFlagRequired("candidate")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func addPagingFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "page number (1-based)")
	cmd.Flags().Int("size", 10, fmt.Sprintf("page size (max %d)", usecase.MaxPageSize))
}

func parseIDFlag(cmd *cobra.Command, name string) (uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("--%s: %w", name, err)
	}
	return id, nil
}

func parseIDListFlag(cmd *cobra.Command, name string) ([]uuid.UUID, error) {
	raw, _ := cmd.Flags().GetStringSlice(name)
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("--%s %q: %w", name, s, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// buildMatching wires the matching usecase over an in-memory snapshot. No
// cache is used: every run scores from scratch.
func buildMatching(ctx context.Context) (*usecase.Matching, *zap.Logger, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("getting a config: %w", err)
	}
	if cfg.Snapshot == "" {
		return nil, nil, errSnapshotRequired
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := repository.LoadSnapshot(cfg.Snapshot)
	if err != nil {
		return nil, nil, err
	}

	ontology := matching.DefaultOntology()
	if cfg.OntologyFile != "" {
		if ontology, err = matching.LoadOntology(cfg.OntologyFile); err != nil {
			return nil, nil, err
		}
	}

	snapshot := usecase.NewTaxonomySnapshot(store, 0, log)
	if _, err := snapshot.Current(ctx); err != nil {
		return nil, nil, err
	}

	uc, err := usecase.NewMatchingUsecase(snapshot, store, store, nil, log, usecase.MatchingOptions{
		Ontology: ontology,
		Weights: matching.Weights{
			Skill:     cfg.Weights.Skill,
			Education: cfg.Weights.Education,
			Position:  cfg.Weights.Position,
		},
		Workers: cfg.Workers,
	})
	if err != nil {
		return nil, nil, err
	}
	return uc, log, nil
}

// newLogger keeps stdout for tables: below debug only warnings are logged.
func newLogger(cfg *Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.JSON, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	if !cfg.Debug {
		log = log.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
	}
	return log, nil
}
