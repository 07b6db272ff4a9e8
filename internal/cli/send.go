package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

var ErrInvalidFlags = errors.New("cli: invalid flags")

type sendOptions struct {
	template     string
	relatedType  string
	relatedID    string
	contextJSON  string
	from         string
	to           []string
	cc           []string
	bcc          []string
	failSilently bool
	dryRun       bool
}

func newSendCmd(root *rootOptions) *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Render a template and send it through the configured transport",
		Example: `  mailtemplates send --template welcome --to user@example.com --context '{"user":"Ann"}'
  mailtemplates send --template welcome --related-type site --related-id 1 --to a@example.com --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := opts.params()
			if err != nil {
				return err
			}
			return withDeps(cmd, root, func(ctx context.Context, d *deps) error {
				m, err := d.mailer()
				if err != nil {
					return err
				}
				if opts.dryRun {
					email, err := m.Preview(ctx, params.Name, params.Related, params.Context, mailer.ComposeOptions{
						From: params.From, To: params.To, CC: params.CC, BCC: params.BCC,
					})
					if err != nil {
						return err
					}
					printEmail(cmd.OutOrStdout(), email)
					return nil
				}

				return sendMail(ctx, cmd.OutOrStdout(), m, params)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.template, "template", "", "template name")
	f.StringVar(&opts.relatedType, "related-type", "", "related object type, e.g. site")
	f.StringVar(&opts.relatedID, "related-id", "", "related object id")
	f.StringVar(&opts.contextJSON, "context", "", "template context as a JSON object")
	f.StringVar(&opts.from, "from", "", "sender address, overrides the template sender")
	f.StringSliceVar(&opts.to, "to", nil, "recipient addresses")
	f.StringSliceVar(&opts.cc, "cc", nil, "extra CC addresses")
	f.StringSliceVar(&opts.bcc, "bcc", nil, "extra BCC addresses")
	f.BoolVar(&opts.failSilently, "fail-silently", false, "do not fail when delivery fails")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the composed message instead of sending it")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

// sendMail prints the outcome status. A silenced delivery failure yields no
// Result and is reported as a failure without an error.
func sendMail(ctx context.Context, w io.Writer, m *mailer.Mailer, params mailer.SendParams) error {
	res, err := m.SendMail(ctx, params)
	if err != nil {
		return err
	}
	if res == nil {
		fmt.Fprintln(w, mailer.StatusFailure.String())
		return nil
	}
	fmt.Fprintln(w, res.Status.String())
	return nil
}

func (o *sendOptions) params() (mailer.SendParams, error) {
	related, err := relatedFromFlags(o.relatedType, o.relatedID)
	if err != nil {
		return mailer.SendParams{}, err
	}
	data, err := parseContext(o.contextJSON)
	if err != nil {
		return mailer.SendParams{}, err
	}
	return mailer.SendParams{
		Name:         o.template,
		Related:      related,
		Context:      data,
		From:         o.from,
		To:           o.to,
		CC:           o.cc,
		BCC:          o.bcc,
		FailSilently: o.failSilently,
	}, nil
}

// Both halves of the related key are required together.
func relatedFromFlags(typ, id string) (*mailer.RelatedKey, error) {
	switch {
	case typ == "" && id == "":
		return nil, nil
	case typ == "" || id == "":
		return nil, fmt.Errorf("%w: --related-type and --related-id go together", ErrInvalidFlags)
	default:
		return mailer.Related(typ, id), nil
	}
}

func parseContext(raw string) (mailer.Context, error) {
	if raw == "" {
		return mailer.Context{}, nil
	}
	var data mailer.Context
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("%w: --context must be a JSON object: %w", ErrInvalidFlags, err)
	}
	if data == nil {
		data = mailer.Context{}
	}
	return data, nil
}

func printEmail(w io.Writer, e *mailer.Email) {
	fmt.Fprintf(w, "Template: %s\n", e.Template.Name)
	fmt.Fprintf(w, "From: %s\n", e.From)
	fmt.Fprintf(w, "To: %s\n", strings.Join(e.To, ", "))
	if len(e.CC) > 0 {
		fmt.Fprintf(w, "Cc: %s\n", strings.Join(e.CC, ", "))
	}
	if len(e.BCC) > 0 {
		fmt.Fprintf(w, "Bcc: %s\n", strings.Join(e.BCC, ", "))
	}
	fmt.Fprintf(w, "Subject: %s\n\n%s\n", e.Subject, e.Text)
	if e.HTML != "" {
		fmt.Fprintf(w, "\n--- text/html ---\n%s\n", e.HTML)
	}
}
