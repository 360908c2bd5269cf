package main

import (
	"fmt"
	"time"

	cache "github.com/krisalay/tiered-content-cache"
	"github.com/krisalay/tiered-content-cache/engine"
	"github.com/krisalay/tiered-content-cache/eviction"
	"github.com/krisalay/tiered-content-cache/types"
)

// ================= METRICS =================

type counters struct {
	hits, misses, inserts, rejects, evictions int
}

func (c *counters) Hit()      { c.hits++ }
func (c *counters) Miss()     { c.misses++ }
func (c *counters) Insert()   { c.inserts++ }
func (c *counters) Reject()   { c.rejects++ }
func (c *counters) Eviction() { c.evictions++ }

// ================= BENCHMARK =================

func main() {
	// ---------------- Cache Config ----------------
	const (
		tiers        = 3
		tierCapacity = 50000
		records      = 200000
		lookups      = 1000000
		updateEvery  = 10
	)

	headers := []string{"text/html", "image/png", "application/json", "text/css", "font/woff2"}

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Tiers         :", tiers)
	fmt.Println("Tier Capacity :", tierCapacity)
	fmt.Println("Records       :", records)
	fmt.Println("Lookups       :", lookups)
	fmt.Println("---------------------------------")

	for _, policy := range []eviction.Policy{eviction.LRU, eviction.MRU} {
		m := &counters{}
		c := cache.NewTieredCache(tiers, tierCapacity, engine.NewCacheEngine(nil, m, nil))

		record := func(i int) types.ContentRecord {
			return types.ContentRecord{
				ID:      i % (records / 4),
				Size:    1 + (i*31)%97,
				Header:  headers[i%len(headers)],
				Payload: "payload",
			}
		}

		// ---------------- Insert ----------------
		start := time.Now()
		for i := 0; i < records; i++ {
			c.Insert(record(i), policy)
		}
		insertTime := time.Since(start)

		// ---------------- Lookup / Update ----------------
		start = time.Now()
		for i := 0; i < lookups; i++ {
			r := record(i * 7)
			if i%updateEvery == 0 {
				c.UpdateContent(r)
				continue
			}
			c.Lookup(r)
		}
		readTime := time.Since(start)

		fmt.Printf("\n================ RESULTS (%s) =================\n", policy)
		fmt.Printf("Insert Time      : %v (%.2f ops/sec)\n", insertTime, float64(records)/insertTime.Seconds())
		fmt.Printf("Read Time        : %v (%.2f ops/sec)\n", readTime, float64(lookups)/readTime.Seconds())
		fmt.Printf("Inserts/Rejects  : %d / %d\n", m.inserts, m.rejects)
		fmt.Printf("Hits/Misses      : %d / %d\n", m.hits, m.misses)
		fmt.Printf("Evictions        : %d\n", m.evictions)
		fmt.Println("=========================================")
	}
}
