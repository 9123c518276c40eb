package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/yihu111/tech-europe-hackathon/internal/ai"
	"github.com/yihu111/tech-europe-hackathon/internal/jobsearch"
	"github.com/yihu111/tech-europe-hackathon/internal/logger"
	"github.com/yihu111/tech-europe-hackathon/internal/profile"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptShowReport    = "Show full profile (JSON)"
	PromptReportBySkill = "Report ranked skills"
	PromptDumpProfile   = "Dump profile to file"
	PromptIndex         = "Index profile for retrieval"
	PromptSearchJobs    = "Compose job search queries"
	PromptExit          = "Exit"
)

var errExit = errors.New("exit requested")

var analyzePrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowReport, PromptReportBySkill, PromptDumpProfile, PromptIndex, PromptSearchJobs, PromptExit},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <identifier>",
	Short: "Build a skill profile from the identifier's public repositories",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolP("non-interactive", "y", false, "print the report and exit without the follow-up menu")
	analyzeCmd.Flags().StringP("output", "o", "", "dump the aggregated profile to this file")
	analyzeCmd.Flags().Bool("index", false, "index the profile for retrieval after the run")
}

func analyze(cmd *cobra.Command, identifier string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting skillsight", zap.String("version", version))

	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	pipe, generator, err := buildPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	aggregated, err := pipe.Run(ctx, identifier)
	if err != nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}

	printReport(aggregated)

	if output := cmd.Flag("output").Value.String(); output != "" {
		if err := dumpProfile(aggregated, output); err != nil {
			logger.Fatal("dumping profile", zap.Error(err))
		}
		logger.Info("profile dumped", zap.String("filename", output))
	}

	if cmd.Flag("index").Value.String() == "true" {
		indexer, err := buildIndexer(config, logger)
		if err != nil {
			logger.Fatal("building the indexer", zap.Error(err))
		}
		if err := indexer.Index(ctx, aggregated); err != nil {
			logger.Fatal("indexing profile", zap.Error(err))
		}
	}

	if cmd.Flag("non-interactive").Value.String() == "true" {
		return
	}

	for {
		_, action, err := analyzePrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAnalyzeAction(ctx, action, aggregated, config, generator, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAnalyzeAction(ctx context.Context, action string, p *profile.AggregatedProfile, config *Config, generator ai.Generator, logger *zap.Logger) error {
	switch action {
	case PromptShowReport:
		pretty, err := p.MarshalIndent()
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))
		return nil
	case PromptReportBySkill:
		pretty, _ := json.MarshalIndent(p.RankedSkills(), "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptDumpProfile:
		filename, err := dumpProfileToTmpFile(p)
		if err != nil {
			return fmt.Errorf("dump profile to file: %w", err)
		}
		logger.Info("profile dumped", zap.String("filename", filename))
		return nil
	case PromptIndex:
		indexer, err := buildIndexer(config, logger)
		if err != nil {
			return err
		}
		return indexer.Index(ctx, p)
	case PromptSearchJobs:
		queries, err := jobsearch.NewComposer(generator, logger).ComposeQueries(ctx, p, 0)
		if err != nil {
			return err
		}
		for _, query := range queries {
			fmt.Println(query)
		}
		return nil
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printReport(p *profile.AggregatedProfile) {
	fmt.Printf("Profile for %s (%d repositories)\n\n", p.Identifier, p.RepoCount)

	ranked := p.RankedSkills()
	if len(ranked) == 0 {
		fmt.Println("No skill signal found.")
	}
	for _, skill := range ranked {
		fmt.Printf("  %-24s %5.1f%%\n", skill.Name, skill.Weight*100)
	}

	if len(p.Frameworks) > 0 {
		fmt.Println("\nFrameworks:")
		for _, match := range p.Frameworks {
			fmt.Printf("  %-24s %.2f (%s)\n", match.Name, match.Confidence, match.Repo)
		}
	}

	if len(p.Insights) > 0 {
		fmt.Println("\nRepository insights:")
		for _, insight := range p.Insights {
			fmt.Printf("  %s: %s\n", insight.Repo, insight.Summary)
		}
	}
}

func dumpProfile(p *profile.AggregatedProfile, filename string) error {
	data, err := p.MarshalIndent()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o600)
}

func dumpProfileToTmpFile(p *profile.AggregatedProfile) (string, error) {
	file, err := os.CreateTemp("", app+"-profile-*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := p.MarshalIndent()
	if err != nil {
		return "", err
	}
	if _, err := file.Write(data); err != nil {
		return "", err
	}
	return file.Name(), nil
}
