package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"risk-assessment-service/internal/app"
	"risk-assessment-service/internal/classify"
	"risk-assessment-service/internal/domain"
)

// NewClassifyCmd classifies a stored answer file offline, with the same
// rules the service falls back to when the backend is down.
func NewClassifyCmd() *cobra.Command {
	var questionsPath string
	cmd := &cobra.Command{
		Use:   "classify ANSWERS_FILE",
		Short: "Classify a YAML or JSON answer file locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answers := domain.AnswerSet{}
			if err := readYAML(args[0], &answers); err != nil {
				return fmt.Errorf("read answers: %w", err)
			}

			questions := app.BuiltinQuestions()
			if questionsPath != "" {
				questions = nil
				if err := readYAML(questionsPath, &questions); err != nil {
					return fmt.Errorf("read questions: %w", err)
				}
			}

			result := classify.Classify(app.SortQuestions(questions), answers)
			out := yaml.NewEncoder(cmd.OutOrStdout())
			defer out.Close()
			return out.Encode(result)
		},
	}
	cmd.Flags().StringVar(&questionsPath, "questions", "", "YAML/JSON question list (defaults to the built-in set)")
	return cmd
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}
