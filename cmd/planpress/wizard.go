package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/planpress/planpress/internal/client"
	"github.com/planpress/planpress/internal/form"
	"github.com/planpress/planpress/internal/model"
	"github.com/planpress/planpress/internal/viewer"
)

const (
	actionNext   = "Next step"
	actionBack   = "Previous step"
	actionSubmit = "Generate document"
	actionQuit   = "Quit without submitting"
)

func newWizardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wizard [template-id]",
		Short: "Fill in a template step by step and generate the PDF",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c := client.New(cfg.APIBaseURL)
			templateID, err := pickTemplate(cmd, c, args)
			if err != nil {
				return err
			}
			tpl, err := c.GetTemplate(cmd.Context(), templateID)
			if err != nil {
				if errors.Is(err, client.ErrTemplateNotFound) {
					return fmt.Errorf("template %q not found, try `planpress templates`", templateID)
				}
				return fmt.Errorf("%s", client.UserMessage(err))
			}

			session := form.NewSession(tpl)
			payload, err := runWizardLoop(cmd, session)
			if err != nil || payload == nil {
				return err
			}

			doc, err := c.Submit(cmd.Context(), *payload)
			session.FinishSubmit(err)
			if err != nil {
				return fmt.Errorf("%s", client.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "document %s submitted, waiting for the PDF...\n", doc.ID)
			return watchDocument(cmd, c, cfg.PollInterval, doc.ID)
		},
	}
}

// pickTemplate resolves the template id from the argument or, when absent,
// an interactive selection over the server's catalog.
func pickTemplate(cmd *cobra.Command, c *client.Client, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	summaries, err := c.ListTemplates(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("%s", client.UserMessage(err))
	}
	if len(summaries) == 0 {
		return "", errors.New("the server has no templates configured")
	}
	options := make([]string, len(summaries))
	byOption := make(map[string]string, len(summaries))
	for i, s := range summaries {
		label := fmt.Sprintf("%s (%s)", s.Name, s.ID)
		options[i] = label
		byOption[label] = s.ID
	}
	var choice string
	prompt := &survey.Select{Message: "Choose a template", Options: options}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", err
	}
	return byOption[choice], nil
}

// runWizardLoop drives the session until the user submits or quits.
// A nil payload with a nil error means the user quit.
func runWizardLoop(cmd *cobra.Command, session *form.Session) (*model.SubmissionPayload, error) {
	for {
		if err := promptStep(session); err != nil {
			return nil, err
		}

		options := []string{}
		if session.CurrentStep() > session.Template().MinStep() {
			options = append(options, actionBack)
		}
		if session.AtFinalStep() {
			options = append(options, actionSubmit)
		} else {
			options = append(options, actionNext)
		}
		options = append(options, actionQuit)

		var action string
		prompt := &survey.Select{
			Message: fmt.Sprintf("Step %d of %d", session.CurrentStep(), session.MaxStep()),
			Options: options,
			Default: options[0],
		}
		if err := survey.AskOne(prompt, &action); err != nil {
			return nil, err
		}

		switch action {
		case actionBack:
			session.Retreat()
		case actionNext:
			if !session.Advance() {
				fmt.Fprintln(cmd.OutOrStdout(), "Please fill in the required fields before continuing.")
			}
		case actionSubmit:
			payload, err := session.Submit()
			if errors.Is(err, form.ErrStepIncomplete) {
				fmt.Fprintln(cmd.OutOrStdout(), "Please fill in the required fields before generating.")
				continue
			}
			if err != nil {
				return nil, err
			}
			return payload, nil
		case actionQuit:
			return nil, nil
		}
	}
}

// promptStep asks every field of the current step, seeded with the
// session's existing answers so going back keeps what was typed.
func promptStep(session *form.Session) error {
	for _, section := range session.Template().SectionsForStep(session.CurrentStep()) {
		fmt.Printf("\n== %s ==\n", section.Title)
		if section.InfoText != "" {
			fmt.Println(section.InfoText)
		}
		for _, field := range section.Fields {
			value, err := promptField(field, session.Value(field.ID))
			if err != nil {
				return err
			}
			session.Set(field.ID, value)
		}
	}
	return nil
}

func promptField(field model.Field, current string) (string, error) {
	label := field.Label
	if field.Required {
		label += " *"
	}
	var prompt survey.Prompt
	if field.Type == model.FieldTypeTextarea {
		prompt = &survey.Multiline{Message: label, Default: current}
	} else {
		prompt = &survey.Input{Message: label, Default: current, Help: field.Placeholder}
	}
	var answer string
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", err
	}
	return answer, nil
}

// watchDocument polls the server and mirrors the poller updates through the
// viewer state machine until the document is ready or failed.
func watchDocument(cmd *cobra.Command, c *client.Client, interval time.Duration, documentID string) error {
	v := viewer.New(documentID)
	poller := client.NewPoller(c, interval)
	handle := poller.Start(cmd.Context(), documentID, func(u client.Update) {
		v.Apply(u)
		switch v.State() {
		case viewer.StateInProgress:
			fmt.Fprintln(cmd.OutOrStdout(), "still generating...")
		case viewer.StateError:
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(v.ErrMsg()))
		}
	})
	<-handle.Done()

	switch v.State() {
	case viewer.StateReady:
		fmt.Fprintf(cmd.OutOrStdout(), "your document is ready: %s\n", v.URL())
		return nil
	case viewer.StateError:
		return fmt.Errorf("document generation failed: %s", v.ErrMsg())
	default:
		return cmd.Context().Err()
	}
}
