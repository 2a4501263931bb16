package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/model"
)

// Observer is notified of every cache lookup.
type Observer interface {
	ObserveCacheLookup(hit bool)
}

// Options configure a caching Model.
type Options struct {
	Logger   logging.Logger
	Observer Observer
}

// Model is a model.Model that answers repeated requests from a Store.
type Model struct {
	inner    model.Model
	store    Store
	seed     *int64
	logger   logging.Logger
	observer Observer
}

// Seed returns a pointer to s for use with NewModel.
func Seed(s int64) *int64 { return &s }

// NewModel wraps inner. Requests are cached under seed; a nil seed or nil
// store turns the wrapper into a pass-through.
func NewModel(inner model.Model, store Store, seed *int64, optFns ...func(o *Options)) *Model {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{
		inner:    inner,
		store:    store,
		seed:     seed,
		logger:   logging.OrNoOp(opts.Logger),
		observer: opts.Observer,
	}
}

// Enabled reports whether requests are served from the cache.
func (m *Model) Enabled() bool { return m.seed != nil && m.store != nil }

// Info implements model.Model.
func (m *Model) Info() model.Info { return m.inner.Info() }

// Key computes the cache key of req.
func (m *Model) Key(req model.Request) (string, error) {
	var seed int64
	if m.seed != nil {
		seed = *m.seed
	}
	// Streaming does not change the final answer.
	req.Stream = false
	data, err := json.Marshal(struct {
		Seed    int64         `json:"seed"`
		Model   model.Info    `json:"model"`
		Request model.Request `json:"request"`
	}{seed, m.inner.Info(), req})
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	if !m.Enabled() {
		return m.inner.Generate(ctx, req)
	}

	out := make(chan model.Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		key, err := m.Key(req)
		if err != nil {
			errCh <- err
			return
		}

		if resp, ok := m.lookup(ctx, key); ok {
			select {
			case out <- resp:
			case <-ctx.Done():
				errCh <- ctx.Err()
			}
			return
		}

		final, err := m.forward(ctx, req, out)
		if err != nil {
			errCh <- err
			return
		}
		if final != nil {
			m.save(ctx, key, *final)
		}
	}()

	return out, errCh
}

func (m *Model) lookup(ctx context.Context, key string) (model.Response, bool) {
	data, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.logger.Warn("cache.lookup.failed", "key", key, "error", err.Error())
		ok = false
	}

	var resp model.Response
	if ok {
		if err := json.Unmarshal(data, &resp); err != nil {
			m.logger.Warn("cache.decode.failed", "key", key, "error", err.Error())
			ok = false
		}
	}

	if m.observer != nil {
		m.observer.ObserveCacheLookup(ok)
	}
	if !ok {
		m.logger.Debug("cache.miss", "key", key)
		return model.Response{}, false
	}
	m.logger.Debug("cache.hit", "key", key)
	resp.Cached = true
	resp.Partial = false
	return resp, true
}

func (m *Model) save(ctx context.Context, key string, resp model.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		m.logger.Warn("cache.encode.failed", "key", key, "error", err.Error())
		return
	}
	if err := m.store.Set(ctx, key, data); err != nil {
		m.logger.Warn("cache.store.failed", "key", key, "error", err.Error())
	}
}

// forward relays the inner model's chunks and returns the final response.
func (m *Model) forward(ctx context.Context, req model.Request, out chan<- model.Response) (*model.Response, error) {
	respCh, innerErr := m.inner.Generate(ctx, req)

	var final *model.Response
	for respCh != nil || innerErr != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				rr := r
				final = &rr
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		case err, ok := <-innerErr:
			if !ok {
				innerErr = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return final, nil
}
