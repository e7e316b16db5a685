// Command livecli is a terminal front end for live sessions: it streams the
// microphone to the gateway, plays model speech, and renders transcripts,
// token usage, and the session countdown.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	session "github.com/lumastream/live-core/core"
	"github.com/lumastream/live-core/core/audio/miniaudio"
)

func main() {
	gatewayURL := flag.String("url", "http://localhost:8000", "gateway base URL")
	apiKey := flag.String("api-key", os.Getenv("LIVE_API_KEY"), "gateway API key")
	jwt := flag.String("jwt", os.Getenv("LIVE_JWT"), "bearer token for the auth handshake")
	voice := flag.String("voice", "", "prebuilt voice name")
	duration := flag.Int("duration", 0, "session duration in seconds (0 = unlimited)")
	instructions := flag.String("instructions", "", "system instructions for the session")
	device := flag.String("device", "", "capture device name (default: system default)")
	listDevices := flag.Bool("list-devices", false, "list capture devices and exit")
	flag.Parse()

	if *listDevices {
		names, err := miniaudio.ListCaptureDevices()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to list capture devices:", err)
			os.Exit(1)
		}
		fmt.Println(strings.Join(names, "\n"))
		return
	}

	orchestrator := session.NewOrchestrator(
		session.WithGatewayURL(*gatewayURL),
		session.WithAPIKey(*apiKey),
	)

	model := newModel(orchestrator, sessionConfig{
		jwt:          *jwt,
		voice:        *voice,
		duration:     *duration,
		instructions: *instructions,
		device:       *device,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "livecli failed:", err)
		os.Exit(1)
	}
}
