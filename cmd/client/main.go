package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/amalg/gridarena/internal/config"
	"github.com/amalg/gridarena/internal/discovery"
	"github.com/amalg/gridarena/internal/game"
	"github.com/amalg/gridarena/internal/network"
	"github.com/amalg/gridarena/internal/session"
	"github.com/amalg/gridarena/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	addr := flag.String("addr", "", "Server address (e.g., 192.168.1.5:9999); empty searches the LAN")
	id := flag.String("id", "", "Your player ID (default: random)")
	name := flag.String("name", "Player", "Your player name")
	avatarURL := flag.String("avatar", "", "Your avatar image URL")
	guild := flag.String("guild", "lan", "Guild to play in")
	channel := flag.String("channel", "arena", "Channel to play in")
	browse := flag.Bool("browse", false, "List arenas on the LAN and exit")
	wait := flag.Duration("wait", 3*time.Second, "How long to listen for LAN arenas")
	flag.Parse()

	if *browse || *addr == "" {
		servers, err := findServers(cfg.DiscoveryPort, *wait)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to search the LAN: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderServers(servers))
		if *browse {
			return
		}
		if len(servers) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: client --addr <host:port> [--name <name>]")
			fmt.Fprintln(os.Stderr, "  Example: client --addr 192.168.1.5:9999 --name Alice")
			os.Exit(1)
		}
		*addr = servers[0].Addr
	}

	if *avatarURL == "" {
		fmt.Fprintln(os.Stderr, "An --avatar image URL is required to fight (it becomes your map token).")
		os.Exit(1)
	}
	if *id == "" {
		*id = uuid.NewString()
	}
	me := game.Player{ID: *id, Name: *name, AvatarURL: *avatarURL}
	key := session.Key{Guild: *guild, Channel: *channel}

	fmt.Printf("Connecting to %s as %s...\n", *addr, *name)

	client, err := network.NewClient(*addr, me, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	welcome := client.Welcome()
	fmt.Printf("Connected to %s! Channel %s\n", welcome.Server, key)
	time.Sleep(500 * time.Millisecond)

	p := tea.NewProgram(ui.NewModel(client, welcome.Player, key), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func findServers(port int, wait time.Duration) ([]discovery.ServerInfo, error) {
	l := discovery.NewListener(port)
	if err := l.Start(); err != nil {
		return nil, err
	}
	defer l.Stop()

	fmt.Printf("Searching for arenas on port %d...\n", l.Port())
	time.Sleep(wait)
	return l.Servers(), nil
}
