package service

import (
	"container/list"
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
)

// Fingerprint hashes everything in a normalized blueprint and the request
// options that can change a report. Part order is kept since it decides
// draw order.
func Fingerprint(bp *blueprint.Blueprint, opts Options) uint64 {
	d := xxhash.New()
	var buf [8]byte
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = d.Write(buf[:])
	}
	putBool := func(v bool) {
		if v {
			putInt(1)
		} else {
			putInt(0)
		}
	}
	putString := func(v string) {
		putInt(int64(len(v)))
		_, _ = d.WriteString(v)
	}

	putString(bp.Name)
	putString(bp.Author)
	putInt(int64(len(bp.Tags)))
	for _, t := range bp.Tags {
		putString(t)
	}
	putInt(int64(bp.FlightDirection))

	putInt(int64(len(bp.Parts)))
	for _, p := range bp.Parts {
		putString(string(p.ID))
		putInt(int64(p.Location[0]))
		putInt(int64(p.Location[1]))
		putInt(int64(p.Rotation))
		putBool(p.FlipX)
	}
	putInt(int64(len(bp.Doors)))
	for _, door := range bp.Doors {
		putString(string(door.ID))
		putInt(int64(door.Location[0]))
		putInt(int64(door.Location[1]))
		putInt(int64(door.Orientation))
	}
	putInt(int64(len(bp.MissileTypes)))
	for _, m := range bp.MissileTypes {
		putString(m)
	}
	putInt(int64(len(bp.Storage)))
	for _, r := range bp.Storage {
		putString(r)
	}

	o := opts.Overlays
	for _, b := range []bool{
		opts.BoostEnabled, opts.Render, opts.Upload,
		o.DrawCoM, o.DrawAllCoM, o.DrawCoT, o.DrawAllCoT, o.FlipVectors,
	} {
		putBool(b)
	}
	return d.Sum64()
}

// reportCache is a mutex-guarded LRU of finished reports
type reportCache struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[uint64]*list.Element
}

type cacheEntry struct {
	key    uint64
	report *Report
}

func newReportCache(max int) *reportCache {
	return &reportCache{
		max:     max,
		order:   list.New(),
		entries: make(map[uint64]*list.Element),
	}
}

func (c *reportCache) Get(key uint64) (*Report, bool) {
	if c.max <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).report, true
}

func (c *reportCache) Put(key uint64, r *Report) {
	if c.max <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).report = r
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, report: r})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *reportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
