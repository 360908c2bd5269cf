package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"

	cache "github.com/krisalay/tiered-content-cache"
	"github.com/krisalay/tiered-content-cache/config"
	"github.com/krisalay/tiered-content-cache/engine"
	"github.com/krisalay/tiered-content-cache/types"
)

// ================= BACKING SOURCE =================
type InMemorySource struct {
	data map[int]types.ContentRecord
}

func NewInMemorySource() *InMemorySource {
	return &InMemorySource{data: make(map[int]types.ContentRecord)}
}

func (s *InMemorySource) Add(rec types.ContentRecord) {
	s.data[rec.ID] = rec
}

func (s *InMemorySource) Load(ctx context.Context, key types.ContentRecord) (types.ContentRecord, error) {
	fmt.Println("SOURCE → load:", key.ID)
	rec, ok := s.data[key.ID]
	if !ok {
		return types.ContentRecord{}, types.ErrMiss
	}
	return rec, nil
}

// ================= METRICS =================
type Metrics struct {
	hits      int
	misses    int
	inserts   int
	rejects   int
	evictions int
}

func (m *Metrics) Hit()      { m.hits++ }
func (m *Metrics) Miss()     { m.misses++ }
func (m *Metrics) Insert()   { m.inserts++ }
func (m *Metrics) Reject()   { m.rejects++ }
func (m *Metrics) Eviction() { m.evictions++ }

func (m *Metrics) Print() {
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS      : %d\n", m.hits)
	fmt.Printf("MISSES    : %d\n", m.misses)
	fmt.Printf("INSERTS   : %d\n", m.inserts)
	fmt.Printf("REJECTS   : %d\n", m.rejects)
	fmt.Printf("EVICTIONS : %d\n", m.evictions)
}

// ================= MAIN =================

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		abs, err := filepath.Abs(*configPath)
		if err == nil {
			cfg, err = config.Load(osfs.New(filepath.Dir(abs)), filepath.Base(abs))
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
	}

	if err := run(context.Background(), cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	policy := cfg.EvictionPolicy()

	fmt.Println("\n==================== SYSTEM BOOT ====================")

	// ---------------- System Config ----------------
	fmt.Println("TIERS           :", cfg.Tiers)
	fmt.Println("TIER CAPACITY   :", cfg.TierCapacity)
	fmt.Println("EVICTION POLICY :", policy)
	fmt.Println("ROUTING         : header fingerprint")

	// ---------------- Backing Source ----------------
	source := NewInMemorySource()
	source.Add(types.ContentRecord{ID: 2001, Size: 25, Header: "Content-Type: 1", Payload: "loaded"})

	// ---------------- Metrics ----------------
	metrics := &Metrics{}

	// ---------------- Cache ----------------
	c, err := cache.New(cfg, engine.NewCacheEngine(source, metrics, logger))
	if err != nil {
		return err
	}

	content1 := types.ContentRecord{ID: 1000, Size: 10, Header: "Content-Type: 0", Payload: "0xA"}
	content2 := types.ContentRecord{ID: 1003, Size: 13, Header: "Content-Type: 0", Payload: "0xD"}
	content3 := types.ContentRecord{ID: 1008, Size: 242, Header: "Content-Type: 0", Payload: "0xF2"}
	content4 := types.ContentRecord{ID: 1004, Size: 50, Header: "Content-Type: 1", Payload: "110010"}
	content5 := types.ContentRecord{ID: 1001, Size: 51, Header: "Content-Type: 1", Payload: "110011"}
	content6 := types.ContentRecord{ID: 1007, Size: 155, Header: "Content-Type: 1", Payload: "10011011"}
	content7 := types.ContentRecord{ID: 1005, Size: 18, Header: "Content-Type: 2", Payload: "<html><p>'CMPSC132'</p></html>"}
	content8 := types.ContentRecord{ID: 1002, Size: 14, Header: "Content-Type: 2", Payload: "<html><h2>'PSU'</h2></html>"}
	content9 := types.ContentRecord{ID: 1006, Size: 170, Header: "Content-Type: 2", Payload: "<html><button>'Click Me'</button></html>"}

	// ====================================================
	fmt.Println("\n==================== 1) INSERT ====================")
	for _, r := range []types.ContentRecord{content1, content2, content3, content4, content5, content6, content7, content8, content9} {
		got, err := c.Insert(r, policy)
		if err != nil {
			fmt.Printf("CACHE  → INSERT %d rejected: %v\n", r.ID, err)
			continue
		}
		fmt.Println("CACHE  → INSERTED:", got)
	}
	fmt.Print(c)

	// ====================================================
	fmt.Println("==================== 2) DUPLICATE ====================")
	if _, err := c.Insert(content1, policy); err != nil {
		fmt.Printf("CACHE  → INSERT %d rejected: %v\n", content1.ID, err)
	}

	// ====================================================
	fmt.Println("\n==================== 3) LOOKUP ====================")
	if h, err := c.Lookup(content9); err == nil {
		fmt.Println("CACHE  → HIT:", h.Record())
		if next, ok := h.Next(); ok {
			fmt.Println("CACHE  → NEXT:", next.Record())
		}
	}
	if _, err := c.Lookup(content4); err != nil {
		fmt.Printf("CACHE  → LOOKUP %d: %v\n", content4.ID, err)
	}

	// ====================================================
	fmt.Println("\n==================== 4) UPDATE ====================")
	updated := content8
	updated.Payload = "<html><h2>'Penn State'</h2></html>"
	if got, err := c.UpdateContent(updated); err == nil {
		fmt.Println("CACHE  → UPDATED:", got)
	}
	tooBig := content8
	tooBig.Size = 100
	if _, err := c.UpdateContent(tooBig); err != nil {
		fmt.Printf("CACHE  → UPDATE %d: %v\n", tooBig.ID, err)
	}

	// ====================================================
	fmt.Println("\n==================== 5) READ-THROUGH ====================")
	key := types.ContentRecord{ID: 2001, Header: "Content-Type: 1"}
	for i := 0; i < 2; i++ {
		got, err := c.Fetch(ctx, key, policy)
		if err != nil {
			return err
		}
		fmt.Println("CACHE  → FETCH:", got)
	}
	fmt.Print(c)

	// ====================================================
	metrics.Print()

	// ====================================================
	fmt.Println("\n==================== CLEAR ====================")
	c.Clear()
	fmt.Print(c)
	return nil
}
