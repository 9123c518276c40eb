package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/yihu111/tech-europe-hackathon/internal/jobsearch"
	"github.com/yihu111/tech-europe-hackathon/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs <identifier>",
	Short: "Compose job-board search queries from the identifier's strongest skills",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jobs(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.Flags().IntP("count", "n", 3, "how many search queries to compose")
	jobsCmd.Flags().StringP("profile", "p", "", "use a previously dumped profile instead of re-running analysis")
}

func jobs(cmd *cobra.Command, identifier string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	aggregated, generator, err := loadOrBuildProfile(ctx, cmd, config, identifier, logger)
	if err != nil {
		logger.Fatal("obtaining the profile", zap.Error(err))
	}
	if generator == nil {
		if generator, err = buildGenerator(ctx, config, logger); err != nil {
			logger.Fatal("building the model client", zap.Error(err))
		}
	}

	count, _ := cmd.Flags().GetInt("count")

	queries, err := jobsearch.NewComposer(generator, logger).ComposeQueries(ctx, aggregated, count)
	if err != nil {
		logger.Fatal("composing job queries", zap.Error(err))
	}

	for _, query := range queries {
		fmt.Println(query)
	}
}
