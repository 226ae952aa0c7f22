package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"learning-friend-service/internal/app"
	"learning-friend-service/internal/content"
	"learning-friend-service/internal/domain"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errQuizInterrupted = errors.New("quiz interrupted before the last question")

// NewPlayCmd runs a quiz in the terminal against the built-in content.
func NewPlayCmd() *cobra.Command {
	var (
		subject string
		hindi   bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := content.Builtin()
			if err != nil {
				return err
			}
			bank, err := library.LoadBank(cmd.Context(), subject)
			if err != nil {
				return err
			}
			_, err = playQuiz(cmd.InOrStdin(), cmd.OutOrStdout(), bank, hindi)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "math", "subject id (math, science, language, environment)")
	cmd.Flags().BoolVar(&hindi, "hindi", false, "show prompts and explanations in Hindi")
	return cmd
}

// playQuiz asks every question of bank on out, reading option numbers from in.
func playQuiz(in io.Reader, out io.Writer, bank domain.QuestionBank, hindi bool) (app.AdvanceResult, error) {
	session, err := app.NewSession(uuid.NewString(), bank, nil, time.Now())
	if err != nil {
		return app.AdvanceResult{}, err
	}
	scanner := bufio.NewScanner(in)

	for {
		q := session.CurrentQuestion()
		fmt.Fprintf(out, "\nQuestion %d of %d (%.0f%%)\n", session.CurrentIndex()+1, session.Len(), session.ProgressFraction()*100)
		fmt.Fprintln(out, pick(hindi, q.PromptSecondary, q.PromptPrimary))
		for i, option := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, option)
		}

		for !session.Revealed() {
			fmt.Fprint(out, "Your answer: ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return app.AdvanceResult{}, err
				}
				return app.AdvanceResult{}, errQuizInterrupted
			}
			choice, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err != nil {
				fmt.Fprintln(out, "Please type the number of your answer.")
				continue
			}
			if err := session.SelectOption(choice - 1); err != nil {
				fmt.Fprintf(out, "Please pick a number from 1 to %d.\n", len(q.Options))
				continue
			}
			correct, err := session.SubmitAnswer()
			if err != nil {
				return app.AdvanceResult{}, err
			}
			if correct {
				fmt.Fprintln(out, "Correct! Well done!")
			} else {
				fmt.Fprintf(out, "Not quite. The answer is %s.\n", q.Options[q.CorrectOptionIndex])
			}
			if explanation := pick(hindi, q.ExplanationSecondary, q.ExplanationPrimary); explanation != "" {
				fmt.Fprintln(out, explanation)
			}
		}

		res, err := session.Advance()
		if err != nil {
			return app.AdvanceResult{}, err
		}
		if res.Finished {
			fmt.Fprintf(out, "\nYou scored %d out of %d!\n", res.Score, res.Total)
			return res, nil
		}
	}
}

func pick(secondary bool, hindi, english string) string {
	if secondary && hindi != "" {
		return hindi
	}
	return english
}
