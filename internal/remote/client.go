package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/nissyi-gh/taskdeck/internal/model"
)

// Client talks to a taskdeckd server. It doubles as the reachability
// probe: every change poll that succeeds marks the store online, every
// one that fails marks it offline.
type Client struct {
	base  string
	owner string
	hc    *http.Client

	mu     sync.Mutex
	online bool
	seq    int64
	subs   map[model.EntityKind]map[int]func()
	reach  map[int]func(bool)
	nextID int

	stop chan struct{}
	done chan struct{}
}

// NewClient creates a client for the server at baseURL, scoped to one
// owner. Call Start to begin the change poll.
func NewClient(baseURL, owner string) *Client {
	return &Client{
		base:  baseURL,
		owner: owner,
		hc:    &http.Client{Timeout: 10 * time.Second},
		subs:  make(map[model.EntityKind]map[int]func()),
		reach: make(map[int]func(bool)),
	}
}

// Start launches the background change poll at the given interval. The
// first poll also settles the initial reachability state.
func (c *Client) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		c.poll()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.poll()
			}
		}
	}()
}

// Stop ends the change poll and waits for it to exit.
func (c *Client) Stop() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop = nil
}

type changeFeed struct {
	Seq   int64    `json:"seq"`
	Kinds []string `json:"kinds"`
}

func (c *Client) poll() {
	c.mu.Lock()
	since := c.seq
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var feed changeFeed
	q := url.Values{"since": {strconv.FormatInt(since, 10)}, "owner": {c.owner}}
	err := c.getJSON(ctx, "/api/changes?"+q.Encode(), &feed)
	if err != nil {
		c.setOnline(false)
		return
	}
	c.setOnline(true)

	c.mu.Lock()
	c.seq = feed.Seq
	var fire []func()
	for _, k := range feed.Kinds {
		for _, fn := range c.subs[model.EntityKind(k)] {
			fire = append(fire, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	var fire []func(bool)
	if changed {
		for _, fn := range c.reach {
			fire = append(fire, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fire {
		fn(online)
	}
}

// Online reports the reachability observed by the last poll.
func (c *Client) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// OnReachabilityChange registers a transition callback.
func (c *Client) OnReachabilityChange(fn func(bool)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.reach[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.reach, id)
	}
}

// Subscribe registers a change callback for one entity kind.
func (c *Client) Subscribe(kind model.EntityKind, owner string, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs[kind] == nil {
		c.subs[kind] = make(map[int]func())
	}
	id := c.nextID
	c.nextID++
	c.subs[kind][id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[kind], id)
	}
}

// Collection returns the CRUD surface for one entity kind.
func (c *Client) Collection(kind model.EntityKind) Collection {
	return &httpCollection{c: c, path: "/api/" + CollectionPath(kind)}
}

// SetPositions issues one batched reorder call.
func (c *Client) SetPositions(ctx context.Context, kind model.EntityKind, updates []PositionUpdate) error {
	body := struct {
		Kind    string           `json:"kind"`
		Owner   string           `json:"owner"`
		Updates []PositionUpdate `json:"updates"`
	}{string(kind), c.owner, updates}
	_, err := c.do(ctx, http.MethodPost, "/api/positions", body)
	return err
}

type httpCollection struct {
	c    *Client
	path string
}

func (h *httpCollection) Select(ctx context.Context, filter Filter) ([]json.RawMessage, error) {
	q := url.Values{"owner": {h.c.owner}}
	for k, v := range filter {
		q.Set(k, v)
	}
	var rows []json.RawMessage
	if err := h.c.getJSON(ctx, h.path+"?"+q.Encode(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (h *httpCollection) Insert(ctx context.Context, row any) (json.RawMessage, error) {
	return h.c.do(ctx, http.MethodPost, h.path+"?owner="+url.QueryEscape(h.c.owner), row)
}

func (h *httpCollection) Update(ctx context.Context, id string, row any) (json.RawMessage, error) {
	return h.c.do(ctx, http.MethodPatch, h.path+"/"+url.PathEscape(id), row)
}

func (h *httpCollection) Delete(ctx context.Context, id string) error {
	_, err := h.c.do(ctx, http.MethodDelete, h.path+"/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return httpError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var buf io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		buf = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpError(resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func httpError(resp *http.Response) error {
	bs, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(bs, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("remote store: %s (%s)", apiErr.Error, resp.Status)
	}
	return fmt.Errorf("remote store: %s", resp.Status)
}
