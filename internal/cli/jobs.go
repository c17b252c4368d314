package cli

import (
	"neuromatch/internal/common"
	"neuromatch/internal/jobsearch"
	"neuromatch/internal/types"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Search job postings and rank them against a profile",
	Long: `Search remote job boards for postings matching a target role and rank them
by keyword overlap with the given skills. Jooble is queried when a key is
configured; Arbeitnow is used otherwise or as a fallback.`,
	PreRunE: validateJobsFlags,
	RunE:    runJobs,
}

func init() {
	jobsCmd.Flags().String("role", "", "Target role (required)")
	jobsCmd.Flags().String("location", "", "Preferred location")
	jobsCmd.Flags().String("industry", "", "Industry")
	jobsCmd.Flags().String("skills", "", "Comma separated core skills")
	jobsCmd.Flags().String("keywords", "", "Comma separated extra keywords")
	jobsCmd.Flags().Int("limit", 0, "Maximum number of postings (default from config)")
	jobsCmd.Flags().StringP("format", "f", "", "Output format: json, text, markdown")
	jobsCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	_ = jobsCmd.MarkFlagRequired("role")
}

func validateJobsFlags(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.App.DefaultFormat
		if err := cmd.Flags().Set("format", format); err != nil {
			return err
		}
	}
	return common.ValidateOutputFormat(format, cfg.App.SupportedFormats)
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg, logger, err := contextDeps(cmd)
	if err != nil {
		return err
	}

	role, _ := cmd.Flags().GetString("role")
	location, _ := cmd.Flags().GetString("location")
	industry, _ := cmd.Flags().GetString("industry")
	skills, _ := cmd.Flags().GetString("skills")
	keywords, _ := cmd.Flags().GetString("keywords")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	searcher := jobsearch.NewSearcher(cfg.JobSearch, logger)
	jobs, err := searcher.Search(cmd.Context(), types.JobSearchRequest{
		ResumeStruct: types.ResumeStruct{
			SkillsCore: common.SplitList(skills),
			Keywords:   common.SplitList(keywords),
		},
		TargetRole: role,
		Location:   location,
		Industry:   industry,
		Limit:      limit,
	})
	if err != nil {
		return err
	}
	if jobs == nil {
		jobs = []types.Job{}
	}

	return common.NewOutputHandler(logger, cmd.OutOrStdout()).HandleOutput(jobs, common.CommandConfig{
		OutputFile:   output,
		OutputFormat: format,
	})
}
