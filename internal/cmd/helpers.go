package cmd

import (
	"os"

	"github.com/muesli/termenv"

	"hexa/internal/frontend"
	"hexa/internal/ipc"
)

// registerRequest builds the initial register call every attach path sends
// right after connecting, per spec.md §4.1/§4.2.
func registerRequest(client *frontend.Client) *ipc.Request {
	name, _ := os.Hostname()
	return &ipc.Request{
		Type:        ipc.ReqRegister,
		SessionID:   client.ID(),
		SessionName: name,
	}
}

// termenvProfile resolves the controlling terminal's color profile once,
// for the status bar's SGR styling.
func termenvProfile() termenv.Profile {
	return termenv.NewOutput(os.Stdout).ColorProfile()
}

// dialExistingDaemon connects to a running daemon without spawning one,
// for read-only/scriptable subcommands that should report "nothing
// running" rather than starting a daemon just to ask it.
func dialExistingDaemon() (*frontend.Client, error) {
	return frontend.ConnectExisting()
}
