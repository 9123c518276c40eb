package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/yihu111/tech-europe-hackathon/internal/ai"
	"github.com/yihu111/tech-europe-hackathon/internal/interview"
	"github.com/yihu111/tech-europe-hackathon/internal/logger"
	"github.com/yihu111/tech-europe-hackathon/internal/profile"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var questionsCmd = &cobra.Command{
	Use:   "questions <identifier>",
	Short: "Generate interview questions grounded in the identifier's profile and a job description",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		questions(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)

	questionsCmd.Flags().String("job", "", "job description text")
	questionsCmd.Flags().String("job-file", "", "file containing the job description")
	questionsCmd.Flags().IntP("count", "n", 5, "how many questions to generate")
	questionsCmd.Flags().StringP("profile", "p", "", "use a previously dumped profile instead of re-running analysis")
}

func questions(cmd *cobra.Command, identifier string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	jobDescription, err := readJobDescription(cmd)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err))
	}

	count, _ := cmd.Flags().GetInt("count")

	aggregated, generator, err := loadOrBuildProfile(ctx, cmd, config, identifier, logger)
	if err != nil {
		logger.Fatal("obtaining the profile", zap.Error(err))
	}
	if generator == nil {
		if generator, err = buildGenerator(ctx, config, logger); err != nil {
			logger.Fatal("building the model client", zap.Error(err))
		}
	}

	indexer, err := buildIndexer(config, logger)
	if err != nil {
		logger.Fatal("building the indexer", zap.Error(err))
	}
	if err := indexer.Index(ctx, aggregated); err != nil {
		logger.Fatal("indexing profile", zap.Error(err))
	}

	svc := interview.NewService(indexer, generator, logger)

	result, err := svc.GenerateQuestions(ctx, interview.Request{
		Identifier:     identifier,
		JobDescription: jobDescription,
		Count:          count,
		FallbackSkills: aggregated.TopSkills(10),
	})
	if err != nil {
		if errors.Is(err, interview.ErrInsufficientContext) {
			logger.Fatal("nothing to ground questions in",
				zap.String("hint", "run 'skillsight analyze' first or point --profile at a dumped profile"),
			)
		}
		logger.Fatal("generating questions", zap.Error(err))
	}

	for i, question := range result {
		fmt.Printf("%d. %s\n", i+1, question)
	}
}

// loadOrBuildProfile reads a dumped profile when --profile is set,
// otherwise runs the full pipeline. The generator is only built when a
// pipeline run already required one.
func loadOrBuildProfile(ctx context.Context, cmd *cobra.Command, config *Config, identifier string, log *zap.Logger) (*profile.AggregatedProfile, ai.Generator, error) {
	if path := cmd.Flag("profile").Value.String(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading profile %q: %w", path, err)
		}
		p, err := profile.UnmarshalProfile(data)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing profile %q: %w", path, err)
		}
		if p.Identifier != identifier {
			return nil, nil, fmt.Errorf("profile %q belongs to %q, not %q", path, p.Identifier, identifier)
		}
		log.Info("using dumped profile", zap.String("filename", path))
		return p, nil, nil
	}

	pipe, generator, err := buildPipeline(ctx, config, log)
	if err != nil {
		return nil, nil, err
	}
	p, err := pipe.Run(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}
	return p, generator, nil
}

func readJobDescription(cmd *cobra.Command) (string, error) {
	if text := cmd.Flag("job").Value.String(); text != "" {
		return text, nil
	}
	if path := cmd.Flag("job-file").Value.String(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", errors.New("a job description is required; pass --job or --job-file")
}
