package server

import (
	"bufio"
	"context"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/freeeve/byzantium/internal/config"
	"github.com/freeeve/byzantium/internal/engine"
	"github.com/freeeve/byzantium/internal/registry"
)

func startTestServer(t *testing.T, cfg *config.Config) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	clock := clockwork.NewRealClock()
	reg := registry.New()
	eng := engine.New(reg, cfg, clock, rand.New(rand.NewSource(1)), zerolog.Nop())
	srv := New(ln, reg, eng, clock, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)

	return ln.Addr().String(), func() { cancel() }
}

// readForm reads bytes until a balanced top-level "(...)" form is seen and
// returns it, so tests don't need to guess exact reply sizes.
func readForm(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	depth := 0
	var out []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		out = append(out, b)
		switch b {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return string(out)
			}
		}
	}
}

func TestServerJoinAndChatEndToEnd(t *testing.T) {
	cfg := &config.Config{MinPlayers: 3, LobbyTime: 10, Timeout: 30, StartingForce: 1000}
	addr, stop := startTestServer(t, cfg)
	defer stop()

	c1, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c1.Close()
	c1.SetDeadline(time.Now().Add(5 * time.Second))
	r1 := bufio.NewReader(c1)

	if _, err := c1.Write([]byte("(cjoin(Alice))")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readForm(t, r1); got != "(sjoin(ALICE)(ALICE)(3,10,30))" {
		t.Fatalf("sjoin = %q", got)
	}

	c2, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c2.Close()
	c2.SetDeadline(time.Now().Add(5 * time.Second))
	r2 := bufio.NewReader(c2)

	if _, err := c2.Write([]byte("(cjoin(Bob))")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readForm(t, r2); got != "(sjoin(BOB)(ALICE,BOB)(3,10,30))" {
		t.Fatalf("sjoin #2 = %q", got)
	}

	if _, err := c1.Write([]byte("(cchat(ALL)(hi))")); err != nil {
		t.Fatalf("write chat: %v", err)
	}
	want := "(schat(ALICE)(hi))"
	if got := readForm(t, r1); got != want {
		t.Fatalf("sender schat = %q", got)
	}
	if got := readForm(t, r2); got != want {
		t.Fatalf("recipient schat = %q", got)
	}
}

func TestServerNoVacancyOnCapacity(t *testing.T) {
	cfg := &config.Config{MinPlayers: 3, LobbyTime: 10, Timeout: 30, StartingForce: 1000}
	addr, stop := startTestServer(t, cfg)
	defer stop()

	var conns []net.Conn
	for i := 0; i < 30; i++ {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		conns = append(conns, c)
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	extra, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial extra: %v", err)
	}
	defer extra.Close()
	extra.SetDeadline(time.Now().Add(5 * time.Second))

	buf := make([]byte, len("(snovac)"))
	if _, err := extra.Read(buf); err != nil {
		t.Fatalf("read snovac: %v", err)
	}
	if string(buf) != "(snovac)" {
		t.Fatalf("got %q, want (snovac)", buf)
	}
}
