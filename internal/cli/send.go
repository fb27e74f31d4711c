package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/artpar/httphub/internal/app"
	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/curl"
	"github.com/artpar/httphub/internal/present"
	"github.com/spf13/cobra"
)

// ErrRequestFailed is returned when a send produced no response.
var ErrRequestFailed = errors.New("request failed")

// outputFlags control how a response is printed.
type outputFlags struct {
	View      string
	JSON      bool
	Select    string
	Headers   bool
	Timeout   time.Duration
	NoHistory bool
	AsCurl    bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.View, "view", string(present.ModePretty), "Body view: pretty, raw or preview")
	flags.BoolVar(&f.JSON, "json", false, "Output response as JSON")
	flags.StringVar(&f.Select, "select", "", "Print only the value at this JSON path (e.g. data.items.0.id)")
	flags.BoolVarP(&f.Headers, "include", "i", false, "Print response headers")
	flags.DurationVar(&f.Timeout, "timeout", 0, "Request timeout (default 20s)")
	flags.BoolVar(&f.NoHistory, "no-history", false, "Do not record the request in history")
	flags.BoolVar(&f.AsCurl, "as-curl", false, "Print the equivalent curl command instead of sending")
}

func (f *outputFlags) configure(cfg *app.Config) {
	if f.Timeout > 0 {
		cfg.Timeout = f.Timeout
	}
	if f.NoHistory {
		cfg.History = false
	}
}

// NewSendCommand creates the send command.
func NewSendCommand(opts *Options) *cobra.Command {
	draft := &draftFlags{}
	output := &outputFlags{}

	cmd := &cobra.Command{
		Use:   "send [METHOD URL]",
		Short: "Send an HTTP request",
		Long: `Send an HTTP request and print the response.

METHOD and URL may be omitted when --file or --curl supplies them.

Examples:
  httphub send GET https://api.example.com/users -q page=2
  httphub send POST https://api.example.com/users -d '{"name":"ada"}' --bearer $TOKEN
  httphub send POST https://api.example.com/upload -F title=cat -F photo=@cat.png
  httphub send --file draft.yaml --select data.id
  httphub send --curl "curl -u ada:pw https://api.example.com/me" --as-curl`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := draftFromArgs(draft, args)
			if err != nil {
				return err
			}

			application, err := opts.newApp(output.configure)
			if err != nil {
				return err
			}
			defer application.Close()

			return executeDraft(cmd, application, d, output)
		},
	}

	draft.register(cmd)
	output.register(cmd)

	return cmd
}

// executeDraft sends d once through a fresh session and prints the result.
func executeDraft(cmd *cobra.Command, application *app.App, d *core.RequestDraft, output *outputFlags) error {
	mode, err := present.ParseMode(output.View)
	if err != nil {
		return err
	}

	if output.AsCurl {
		command, err := curl.NewExporter().Export(d)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), command)
		return nil
	}

	result := application.NewSession().Send(contextOf(cmd), d)
	view := result.View
	out := cmd.OutOrStdout()

	switch {
	case output.JSON:
		if err := outputViewJSON(out, view); err != nil {
			return err
		}
	case view.Failed():
		printError(cmd.ErrOrStderr(), view.Error)
	case output.Select != "":
		value, err := present.Select(view.BodyText, output.Select)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, value)
	default:
		outputView(out, view, d.RawFormat, mode, output.Headers)
	}

	if view.Failed() {
		return fmt.Errorf("%w: %s", ErrRequestFailed, view.Error)
	}
	return nil
}
