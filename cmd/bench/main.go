// Command bench runs a synthetic Zipfian workload against the cache
// and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shardlru/blockcache/cache"
	"github.com/shardlru/blockcache/internal/util"
	pmet "github.com/shardlru/blockcache/metrics/prom"
)

func main() {
	var (
		capacity  = flag.Uint64("cap", 64<<20, "cache capacity in bytes")
		shardBits = flag.Int("shardbits", -1, "log2(shard count); -1 = size-derived default")
		strict    = flag.Bool("strict", false, "enable strict_capacity_limit")
		highPri   = flag.Float64("highpri", cache.DefaultHighPriPoolRatio, "high-priority pool ratio [0,1]")
		diagnose  = flag.Bool("diagnose", false, "use NewDiagnosableLRUCache and print a top-K report at exit")
		topK      = flag.Int("topk", 16, "diagnostic top-K size (only with -diagnose)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys       = flag.Int("keys", 1_000_000, "keyspace size")
		valueBytes = flag.Int("valuebytes", 64, "value size in bytes (the entry's charge)")
		zipfS      = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV      = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload    = flag.Int("preload", 0, "preload entries (0 = keyspace/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	metrics := pmet.New(nil, "blockcache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	opts := cache.LRUCacheOptions{
		Capacity:            *capacity,
		NumShardBits:        *shardBits,
		StrictCapacityLimit: *strict,
		HighPriPoolRatio:    *highPri,
		Metrics:             metrics,
		TopK:                *topK,
	}

	var (
		c   cache.Cache
		err error
	)
	if *diagnose {
		c, err = cache.NewDiagnosableLRUCache(opts)
	} else {
		c, err = cache.NewLRUCacheWithOptions(opts)
	}
	if err != nil {
		log.Fatalf("building cache: %v", err)
	}

	stopUsageTicker := make(chan struct{})
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.ReportUsage()
			case <-stopUsageTicker:
				return
			}
		}
	}()

	value := make([]byte, *valueBytes)
	charge := uint64(*valueBytes)

	pl := *preload
	if pl == 0 {
		pl = *keys / 2
	}
	for i := 0; i < pl; i++ {
		k := []byte("k:" + strconv.Itoa(i))
		c.Insert(k, util.HashKey(k), value, charge, nil, nil, cache.Low)
	}

	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyBytes := func() []byte {
				return []byte("k:" + strconv.FormatUint(localZipf.Uint64(), 10))
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				k := keyBytes()
				hash := util.HashKey(k)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if h := c.Lookup(k, hash); h != nil {
						atomic.AddUint64(&hits, 1)
						c.Release(h, false)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					c.Insert(k, hash, value, charge, nil, nil, cache.Low)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)
	close(stopUsageTicker)
	c.ReportUsage()

	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("name=%s cap=%d shardbits=%d workers=%d keys=%d dur=%v seed=%d\n",
		c.Name(), *capacity, *shardBits, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)
	fmt.Printf("usage=%d bytes  pinned=%d bytes\n", c.GetUsage(), c.GetPinnedUsage())
	cacheHits, cacheMisses, cacheEvicts := c.Stats()
	fmt.Printf("cache-internal: hits=%d misses=%d evicts=%d\n", cacheHits, cacheMisses, cacheEvicts)
	if *diagnose {
		fmt.Println(c.DumpStatistics())
	}
}
