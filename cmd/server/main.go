package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/amalg/gridarena/internal/avatar"
	"github.com/amalg/gridarena/internal/battlemap"
	"github.com/amalg/gridarena/internal/config"
	"github.com/amalg/gridarena/internal/discovery"
	"github.com/amalg/gridarena/internal/game"
	"github.com/amalg/gridarena/internal/httpapi"
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

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "TCP address for players")
	flag.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP address for spectators (empty disables)")
	flag.StringVar(&cfg.ServerName, "name", cfg.ServerName, "Server name announced on the LAN")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Log file path")
	flag.BoolVar(&cfg.Discovery, "discovery", cfg.Discovery, "Announce the server on the LAN")
	play := flag.Bool("play", false, "Join your own server from this terminal")
	playerName := flag.String("player", "Host", "Your player name when playing")
	avatarURL := flag.String("avatar", "", "Your avatar image URL when playing")
	guild := flag.String("guild", "lan", "Guild to play in")
	channel := flag.String("channel", "arena", "Channel to play in")
	flag.Parse()

	// Redirect log output before any server code runs. Stderr output would
	// corrupt Bubbletea's terminal rendering when hosting a player.
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	case *play:
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	avatars := avatar.NewClient(avatar.Config{
		TokenURL: cfg.TokenURL,
		Timeout:  cfg.LookupTimeout,
	})
	maps := battlemap.New(cfg.MapURL)
	registry := session.NewRegistry(avatars, cfg.GameConfig())

	server := network.NewServer(cfg.ServerName, cfg.Addr, registry, maps, cfg.Admins)
	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
	defer server.Stop()

	var api *httpapi.API
	if cfg.HTTPAddr != "" {
		api = httpapi.New(registry, maps, cfg.AllowOrigins)
		go func() {
			if err := api.Listen(cfg.HTTPAddr); err != nil {
				log.Printf("[HTTP] Stopped: %v", err)
			}
		}()
		defer api.Shutdown()
	}

	reaper, err := session.StartReaper(registry, cfg.ReapInterval, cfg.IdleTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start reaper: %v\n", err)
		os.Exit(1)
	}
	defer reaper.Stop()

	if cfg.Discovery {
		bc := discovery.NewBroadcaster(discovery.ServerInfo{
			Name:     cfg.ServerName,
			Addr:     server.Addr(),
			HTTPAddr: cfg.HTTPAddr,
		}, cfg.DiscoveryPort)
		if err := bc.Start(); err != nil {
			log.Printf("[DISCOVERY] Disabled: %v", err)
		} else {
			defer bc.Stop()
			err := reaper.Every(2*time.Second, func() {
				forming, active := registry.Counts()
				bc.UpdateCounts(forming, active, server.ClientCount())
			})
			if err != nil {
				log.Printf("[DISCOVERY] Counts will not refresh: %v", err)
			}
		}
	}

	if !*play {
		fmt.Printf("Grid arena %q listening on %s\n", cfg.ServerName, server.Addr())
		<-ctx.Done()
		log.Println("[SERVER] Shutting down")
		return
	}

	if *avatarURL == "" {
		fmt.Fprintln(os.Stderr, "An --avatar image URL is required to fight (it becomes your map token).")
		return
	}

	// Connect as the host player over loopback
	_, port, _ := net.SplitHostPort(server.Addr())
	me := game.Player{ID: uuid.NewString(), Name: *playerName, AvatarURL: *avatarURL}
	key := session.Key{Guild: *guild, Channel: *channel}
	client, err := network.NewClient(net.JoinHostPort("127.0.0.1", port), me, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect as host: %v\n", err)
		return
	}
	defer client.Close()

	p := tea.NewProgram(ui.NewModel(client, client.Welcome().Player, key), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
	}
}
