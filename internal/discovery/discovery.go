package discovery

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultPort is the UDP port used for server discovery.
	DefaultPort = 9998
	// BroadcastInterval is how often servers advertise themselves.
	BroadcastInterval = 1 * time.Second
	// ServerExpiry is how long a server stays visible after its last advert.
	ServerExpiry = 4 * time.Second

	proto = "gridarena/1"
)

// ServerInfo describes an arena server on the network.
type ServerInfo struct {
	Proto    string `json:"proto"`
	Name     string `json:"name"`
	Addr     string `json:"addr"`      // TCP host:port for players
	HTTPAddr string `json:"http_addr"` // spectator API, may be empty
	Forming  int    `json:"forming"`
	Active   int    `json:"active"`
	Players  int    `json:"players"`
}

// --- Broadcaster ---

// Broadcaster periodically sends UDP packets advertising a server.
type Broadcaster struct {
	info ServerInfo
	port int
	done chan struct{}
	mu   sync.Mutex
}

// NewBroadcaster creates an advertiser for info on the given UDP port.
func NewBroadcaster(info ServerInfo, port int) *Broadcaster {
	info.Proto = proto
	if port == 0 {
		port = DefaultPort
	}
	return &Broadcaster{
		info: info,
		port: port,
		done: make(chan struct{}),
	}
}

// UpdateCounts refreshes the advertised match and player counts.
func (b *Broadcaster) UpdateCounts(forming, active, players int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.info.Forming = forming
	b.info.Active = active
	b.info.Players = players
}

// Start begins advertising.
func (b *Broadcaster) Start() error {
	// ListenPacket rather than DialUDP so broadcast works on Linux.
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return fmt.Errorf("create broadcast socket: %w", err)
	}
	go b.broadcastLoop(conn)
	return nil
}

// Stop stops the broadcaster.
func (b *Broadcaster) Stop() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}

func (b *Broadcaster) broadcastLoop(conn net.PacketConn) {
	defer conn.Close()

	ticker := time.NewTicker(BroadcastInterval)
	defer ticker.Stop()

	b.send(conn)
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.send(conn)
		}
	}
}

func (b *Broadcaster) send(conn net.PacketConn) {
	b.mu.Lock()
	data, err := json.Marshal(b.info)
	b.mu.Unlock()
	if err != nil {
		log.Printf("[DISCOVERY] Failed to encode advert: %v", err)
		return
	}

	// Loopback first: 255.255.255.255 is often dropped by the local firewall.
	conn.WriteTo(data, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: b.port})
	conn.WriteTo(data, &net.UDPAddr{IP: net.IPv4bcast, Port: b.port})
	for _, ip := range interfaceBroadcasts() {
		conn.WriteTo(data, &net.UDPAddr{IP: ip, Port: b.port})
	}
}

// interfaceBroadcasts lists the directed broadcast address of every up IPv4
// interface that supports broadcast.
func interfaceBroadcasts() []net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var out []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil || len(ipnet.Mask) != net.IPv4len {
				continue
			}
			ip4 := ipnet.IP.To4()
			bcast := make(net.IP, net.IPv4len)
			for i := range bcast {
				bcast[i] = ip4[i] | ^ipnet.Mask[i]
			}
			out = append(out, bcast)
		}
	}
	return out
}

// --- Listener ---

type seenServer struct {
	info     ServerInfo
	lastSeen time.Time
}

// Listener collects server adverts.
type Listener struct {
	port    int
	servers map[string]*seenServer // keyed by Addr
	mu      sync.RWMutex
	conn    *net.UDPConn
	done    chan struct{}
	now     func() time.Time
}

// NewListener creates a listener for the given UDP port. Port 0 picks a free
// one; see Port.
func NewListener(port int) *Listener {
	return &Listener{
		port:    port,
		servers: make(map[string]*seenServer),
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

// Start begins listening for adverts.
func (l *Listener) Start() error {
	var err error
	l.conn, err = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: l.port})
	if err != nil {
		return fmt.Errorf("listen UDP on port %d: %w (is another instance browsing?)", l.port, err)
	}

	go l.listenLoop()
	go l.cleanupLoop()
	return nil
}

// Port returns the bound UDP port.
func (l *Listener) Port() int {
	if l.conn == nil {
		return l.port
	}
	return l.conn.LocalAddr().(*net.UDPAddr).Port
}

// Stop stops the listener.
func (l *Listener) Stop() {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
	if l.conn != nil {
		l.conn.Close()
	}
}

// Servers returns the currently visible servers ordered by name.
func (l *Listener) Servers() []ServerInfo {
	l.mu.RLock()
	out := make([]ServerInfo, 0, len(l.servers))
	for _, s := range l.servers {
		out = append(out, s.info)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Addr < out[j].Addr
	})
	return out
}

// observe records an advert. Packets from other programs are ignored.
func (l *Listener) observe(data []byte) bool {
	var info ServerInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return false
	}
	if info.Proto != proto || info.Addr == "" {
		return false
	}

	l.mu.Lock()
	l.servers[info.Addr] = &seenServer{info: info, lastSeen: l.now()}
	l.mu.Unlock()
	return true
}

// expire forgets servers not heard from within ServerExpiry.
func (l *Listener) expire() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for addr, s := range l.servers {
		if now.Sub(s.lastSeen) > ServerExpiry {
			delete(l.servers, addr)
		}
	}
}

func (l *Listener) listenLoop() {
	buf := make([]byte, 4096)
	for {
		select {
		case <-l.done:
			return
		default:
		}

		l.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		l.observe(buf[:n])
	}
}

func (l *Listener) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.expire()
		}
	}
}
