package watch

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/reflex/clients/api"
	wsclient "github.com/dohr-michael/reflex/clients/ws"
)

// Run starts the dashboard and blocks until the user quits or ctx is done.
// gatewayURL is the REST base URL, wsURL the WebSocket endpoint.
func Run(ctx context.Context, gatewayURL, wsURL string) error {
	m := NewModel(api.New(gatewayURL))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go pumpEvents(ctx, p, wsURL)

	_, err := p.Run()
	return err
}

// pumpEvents reads gateway frames and feeds them to the program as messages.
func pumpEvents(ctx context.Context, p *tea.Program, wsURL string) {
	client, err := wsclient.Dial(ctx, wsURL)
	if err != nil {
		p.Send(DisconnectedMsg{Err: err})
		return
	}
	defer client.Close()

	p.Send(ConnectedMsg{})

	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if ctx.Err() == nil {
				p.Send(DisconnectedMsg{Err: err})
			}
			return
		}
		if msg := Project(frame); msg != nil {
			p.Send(msg)
		}
	}
}
