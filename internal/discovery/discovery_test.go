package discovery

import (
	"encoding/json"
	"testing"
	"time"
)

func TestObserveAndExpire(t *testing.T) {
	l := NewListener(0)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	advert := func(name, addr string) []byte {
		data, _ := json.Marshal(ServerInfo{Proto: proto, Name: name, Addr: addr, Active: 1})
		return data
	}

	if !l.observe(advert("beta", "10.0.0.2:9999")) || !l.observe(advert("alpha", "10.0.0.1:9999")) {
		t.Fatal("valid adverts rejected")
	}
	if l.observe([]byte(`{"room_name":"lobby"}`)) || l.observe([]byte("garbage")) {
		t.Error("foreign packets should be ignored")
	}

	servers := l.Servers()
	if len(servers) != 2 || servers[0].Name != "alpha" {
		t.Fatalf("expected alpha then beta, got %+v", servers)
	}

	now = now.Add(3 * time.Second)
	l.observe(advert("beta", "10.0.0.2:9999"))
	now = now.Add(2 * time.Second)
	l.expire()

	servers = l.Servers()
	if len(servers) != 1 || servers[0].Name != "beta" {
		t.Errorf("alpha should have expired, got %+v", servers)
	}
}

func TestBroadcastOverLoopback(t *testing.T) {
	l := NewListener(0)
	if err := l.Start(); err != nil {
		t.Skipf("udp unavailable: %v", err)
	}
	defer l.Stop()

	b := NewBroadcaster(ServerInfo{Name: "arena", Addr: "127.0.0.1:9999"}, l.Port())
	b.UpdateCounts(2, 1, 5)
	if err := b.Start(); err != nil {
		t.Fatalf("broadcaster: %v", err)
	}
	defer b.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if servers := l.Servers(); len(servers) == 1 {
			if servers[0].Forming != 2 || servers[0].Players != 5 {
				t.Errorf("unexpected advert %+v", servers[0])
			}
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("advert never arrived")
}
