package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/garyellow/codered-bot-go/internal/config"
	"github.com/garyellow/codered-bot-go/internal/langdetect"
	"github.com/garyellow/codered-bot-go/internal/prompt"
	"github.com/garyellow/codered-bot-go/internal/sensitivity"
)

// policyFlags mirror the KEYWORDS_FILE, PROMPTS_FILE and REGIONAL_LANGUAGE
// settings of the server.
type policyFlags struct {
	keywords string
	prompts  string
	regional string
}

func newRootCmd() *cobra.Command {
	flags := &policyFlags{}

	root := &cobra.Command{
		Use:   "policycheck",
		Short: "Run the conversation policy against sample messages",
		Long: `policycheck applies the sensitivity classifier, the language detector and
the prompt templates to a message exactly as the bot would, without sending
anything to a completion provider. The message is taken from the arguments,
or from stdin when none are given.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Missing .env is fine
			_ = godotenv.Load()
			env := config.FromEnv()
			if flags.keywords == "" {
				flags.keywords = env.KeywordsFile
			}
			if flags.prompts == "" {
				flags.prompts = env.PromptsFile
			}
			if flags.regional == "" {
				flags.regional = env.RegionalLanguage
			}
		},
	}

	root.PersistentFlags().StringVar(&flags.keywords, "keywords", "", "sensitivity keyword YAML (default: built-in table)")
	root.PersistentFlags().StringVar(&flags.prompts, "prompts", "", "prompt template YAML (default: built-in templates)")
	root.PersistentFlags().StringVar(&flags.regional, "regional", "", "regional language ISO 639-1 code (default: hi)")

	root.AddCommand(
		newClassifyCmd(flags),
		newDetectCmd(flags),
		newPromptCmd(flags),
	)
	return root
}

func newClassifyCmd(flags *policyFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [message]",
		Short: "Report whether a message is sensitive",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := messageText(cmd, args)
			if err != nil {
				return err
			}
			classifier, err := loadClassifier(flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			kw, ok := classifier.Match(text)
			if !ok {
				_, err = fmt.Fprintln(out, "sensitive: false")
				return err
			}
			_, err = fmt.Fprintf(out, "sensitive: true\nkeyword: %s\ncategory: %s\n", kw, classifier.Category(kw))
			return err
		},
	}
}

func newDetectCmd(flags *policyFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [message]",
		Short: "Report the detected language and the regional decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := messageText(cmd, args)
			if err != nil {
				return err
			}

			res := langdetect.New(flags.regional).Detect(cmd.Context(), text)
			out := cmd.OutOrStdout()
			if res.Fallback != nil {
				_, err = fmt.Fprintf(out, "language: unknown (%v)\nregional: false\n", res.Fallback)
				return err
			}
			_, err = fmt.Fprintf(out, "language: %s\nconfidence: %.2f\nregional: %t\n", res.Code, res.Confidence, res.Regional)
			return err
		},
	}
}

func newPromptCmd(flags *policyFlags) *cobra.Command {
	var showSystem bool

	cmd := &cobra.Command{
		Use:   "prompt [message]",
		Short: "Print the user turn the bot would send for a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := messageText(cmd, args)
			if err != nil {
				return err
			}
			classifier, err := loadClassifier(flags)
			if err != nil {
				return err
			}
			builder, err := loadBuilder(flags)
			if err != nil {
				return err
			}

			sensitive := classifier.Classify(text)
			regional := langdetect.New(flags.regional).IsRegional(cmd.Context(), text)

			out := cmd.OutOrStdout()
			if showSystem {
				if _, err := fmt.Fprintf(out, "--- system ---\n%s\n", builder.SystemPrompt()); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(out, "--- user (sensitive=%t regional=%t) ---\n%s\n",
				sensitive, regional, builder.Build(text, sensitive, regional))
			return err
		},
	}
	cmd.Flags().BoolVar(&showSystem, "system", false, "also print the system prompt")
	return cmd
}

func loadClassifier(flags *policyFlags) (*sensitivity.Classifier, error) {
	if flags.keywords == "" {
		return sensitivity.Default(), nil
	}
	return sensitivity.Load(flags.keywords)
}

func loadBuilder(flags *policyFlags) (*prompt.Builder, error) {
	if flags.prompts == "" {
		return prompt.Default(flags.regional), nil
	}
	return prompt.Load(flags.prompts, flags.regional)
}

// messageText joins the arguments, or reads stdin when there are none.
func messageText(cmd *cobra.Command, args []string) (string, error) {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no message given")
	}
	return text, nil
}
