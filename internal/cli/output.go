package cli

import (
	"fmt"
	"io"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/present"
	"github.com/fatih/color"
	"github.com/goccy/go-json"
)

// viewOutput is the --json rendering of a response.
type viewOutput struct {
	Status     int             `json:"status,omitempty"`
	StatusText string          `json:"statusText,omitempty"`
	Headers    []core.KeyValue `json:"headers"`
	Body       string          `json:"body"`
	Error      string          `json:"error,omitempty"`
	TimingMs   int64           `json:"timingMs"`
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputViewJSON(w io.Writer, view core.ResponseViewModel) error {
	return writeJSON(w, viewOutput{
		Status:     view.Status,
		StatusText: view.StatusText,
		Headers:    view.Headers,
		Body:       view.BodyText,
		Error:      view.Error,
		TimingMs:   view.Duration.Milliseconds(),
	})
}

// outputView prints the status line, headers and the body as shown in mode.
func outputView(w io.Writer, view core.ResponseViewModel, format core.RawFormat, mode present.Mode, showHeaders bool) {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	statusText := view.StatusText
	if statusText == "" {
		statusText = fmt.Sprintf("%d", view.Status)
	}
	fmt.Fprintf(w, "%s %s\n", statusColor(view.Status).Sprint(statusText),
		dim(fmt.Sprintf("(%dms, %d bytes)", view.Duration.Milliseconds(), len(view.BodyText))))

	if showHeaders && len(view.Headers) > 0 {
		fmt.Fprintln(w)
		for _, h := range view.Headers {
			fmt.Fprintf(w, "%s: %s\n", cyan(h.Key), h.Value)
		}
	}

	if view.BodyText != "" || mode == present.ModePreview {
		fmt.Fprintln(w)
		fmt.Fprintln(w, present.Present(view.BodyText, format, mode))
	} else {
		fmt.Fprintln(w, bold("(empty body)"))
	}
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return color.New(color.FgGreen, color.Bold)
	case code >= 300 && code < 400:
		return color.New(color.FgCyan, color.Bold)
	case code >= 400 && code < 500:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func printError(w io.Writer, msg string) {
	fmt.Fprintln(w, color.New(color.FgRed).Sprint("✗ "+msg))
}

func printSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, color.New(color.FgGreen).Sprint("✓ "+msg))
}
