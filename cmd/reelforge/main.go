package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/reelforge/internal/concept"
	"github.com/keagan/reelforge/internal/config"
	"github.com/keagan/reelforge/internal/logging"
	"github.com/keagan/reelforge/internal/pipeline"
	"github.com/keagan/reelforge/pkg/util"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reelforge",
	Short: "reelforge - audio-driven reel synthesizer",
	Long:  "Generates a portrait reel from an audio track and a concept JSON: procedural visuals synced to the music, muxed with the original audio.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	renderCmd.Flags().StringP("output", "o", "", "output mp4 path")
	renderCmd.Flags().String("style", "", "visual style: classic or enhanced")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(configCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render [audio file] [concept json]",
	Short: "Render a reel from audio and a concept",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		if !util.FileExists(args[0]) {
			return fmt.Errorf("audio file not found: %s", args[0])
		}
		if !util.FileExists(args[1]) {
			return fmt.Errorf("concept file not found: %s", args[1])
		}
		if ext := util.GetExtension(args[1]); ext != ".json" {
			log.Warn().Str("ext", ext).Msg("concept file is not .json")
		}

		c, err := concept.LoadFile(args[1])
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		style, _ := cmd.Flags().GetString("style")

		start := time.Now()
		out, err := pipe.Render(cmd.Context(), args[0], c, pipeline.RenderOptions{
			OutputPath: output,
			Style:      config.Style(style),
		})
		if err != nil {
			// A partial file at an explicit output path is not worth keeping.
			if output != "" {
				util.CleanupFiles(output)
			}
			return err
		}

		log.Info().
			Str("output", out).
			Str("elapsed", util.FormatDuration(time.Since(start))).
			Msg("reel complete")
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [audio file]",
	Short: "Extract audio features and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		if !util.FileExists(args[0]) {
			return fmt.Errorf("audio file not found: %s", args[0])
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		an, err := pipe.Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		log.Info().
			Str("duration", util.FormatSeconds(an.DurationSeconds)).
			Int("beats", len(an.BeatTimes)).
			Msg("analysis complete")

		data, err := json.MarshalIndent(an, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
