// Copyright 2024 The trill Authors
// This file is part of trill.
//
// trill is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// trill is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with trill. If not, see <http://www.gnu.org/licenses/>.

// Package ethclient acquires transaction traces from an Ethereum node over
// JSON-RPC.
package ethclient

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	geth "github.com/ethereum/go-ethereum/ethclient"
	gethmetrics "github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/rpc"
	lru "github.com/hashicorp/golang-lru"
	pkgerrors "github.com/pkg/errors"
	"github.com/trill-evm/trill/core/trace"
	"github.com/trill-evm/trill/log"
	"golang.org/x/sync/singleflight"
)

const (
	// methodNotFound is the JSON-RPC code for an unknown method, returned by
	// nodes that do not expose the debug namespace.
	methodNotFound = -32601

	defaultCacheSize = 16
)

var (
	fetchTimer   = gethmetrics.NewRegisteredTimer("trill/trace/fetch", nil)
	cacheHits    = gethmetrics.NewRegisteredCounter("trill/trace/cache/hit", nil)
	retryCounter = gethmetrics.NewRegisteredCounter("trill/trace/retry", nil)

	errPending = errors.New("transaction is pending")
)

// Config tunes trace acquisition.
type Config struct {
	// Timeout is the tracer timeout handed to the node, zero keeps the node
	// default.
	Timeout time.Duration
	// Retries is the number of extra attempts on transient failures.
	Retries uint64
	// RetryInterval is the initial backoff between attempts.
	RetryInterval time.Duration
	// CacheSize is the number of traces kept in memory.
	CacheSize int
}

// DefaultConfig is the acquisition configuration used by the CLI.
var DefaultConfig = Config{
	Retries:       3,
	RetryInterval: 500 * time.Millisecond,
	CacheSize:     defaultCacheSize,
}

// Source fetches traces with debug_traceTransaction.
type Source struct {
	rpc    *rpc.Client
	client *geth.Client
	cfg    Config

	cache *lru.Cache
	group singleflight.Group
}

// Dial connects to the node at rawurl, retrying transient dial failures.
func Dial(ctx context.Context, rawurl string, cfg Config) (*Source, error) {
	var c *rpc.Client
	err := retry(ctx, cfg, "dial", func() error {
		var err error
		c, err = rpc.DialContext(ctx, rawurl)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "dial %s", rawurl)
	}
	return NewSource(c, cfg), nil
}

// NewSource wraps an established RPC client.
func NewSource(c *rpc.Client, cfg Config) *Source {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	cache, _ := lru.New(cfg.CacheSize)
	return &Source{
		rpc:    c,
		client: geth.NewClient(c),
		cfg:    cfg,
		cache:  cache,
	}
}

// Close tears down the connection.
func (s *Source) Close() {
	s.client.Close()
}

// Fetch implements trace.Source. Concurrent requests for the same hash share
// one round trip.
func (s *Source) Fetch(ctx context.Context, hash common.Hash) (*trace.Trace, error) {
	if t, ok := s.cache.Get(hash); ok {
		cacheHits.Inc(1)
		return t.(*trace.Trace), nil
	}
	v, err, shared := s.group.Do(hash.Hex(), func() (interface{}, error) {
		start := time.Now()
		t, err := s.fetch(ctx, hash)
		if err != nil {
			return nil, err
		}
		fetchTimer.UpdateSince(start)
		s.cache.Add(hash, t)
		log.Info("Fetched trace", "tx", hash, "instructions", t.Len(), "elapsed", time.Since(start))
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	log.Trace("Trace served", "tx", hash, "shared", shared)
	return v.(*trace.Trace), nil
}

func (s *Source) fetch(ctx context.Context, hash common.Hash) (*trace.Trace, error) {
	tx, err := s.transaction(ctx, hash)
	if err != nil {
		return nil, err
	}
	cfg := trace.DefaultTraceConfig()
	if s.cfg.Timeout > 0 {
		timeout := s.cfg.Timeout.String()
		cfg.Timeout = &timeout
	}
	var res trace.ExecutionResult
	err = retry(ctx, s.cfg, "debug_traceTransaction", func() error {
		return s.rpc.CallContext(ctx, &res, "debug_traceTransaction", hash, cfg)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "trace transaction")
	}
	return trace.NewTrace(tx, &res), nil
}

// transaction assembles the envelope from the transaction and its receipt.
func (s *Source) transaction(ctx context.Context, hash common.Hash) (trace.Transaction, error) {
	var (
		tx      *types.Transaction
		pending bool
		receipt *types.Receipt
	)
	err := retry(ctx, s.cfg, "eth_getTransactionByHash", func() (err error) {
		tx, pending, err = s.client.TransactionByHash(ctx, hash)
		return err
	})
	if err != nil {
		return trace.Transaction{}, pkgerrors.Wrap(err, "get transaction")
	}
	if pending {
		return trace.Transaction{}, pkgerrors.Wrap(errPending, hash.Hex())
	}
	err = retry(ctx, s.cfg, "eth_getTransactionReceipt", func() (err error) {
		receipt, err = s.client.TransactionReceipt(ctx, hash)
		return err
	})
	if err != nil {
		return trace.Transaction{}, pkgerrors.Wrap(err, "get receipt")
	}

	env := trace.Transaction{
		Hash:      hash,
		To:        tx.To(),
		BlockHash: receipt.BlockHash,
		Gas:       tx.Gas(),
		GasUsed:   receipt.GasUsed,
		Status:    receipt.Status,
	}
	if receipt.BlockNumber != nil {
		env.BlockNumber = receipt.BlockNumber.Uint64()
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		log.Warn("Failed to derive sender", "tx", hash, "err", err)
	} else {
		env.From = from
	}
	return env, nil
}

// retry runs op with exponential backoff. Unknown transactions and missing
// RPC methods are not retried.
func retry(ctx context.Context, cfg Config, what string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	if cfg.RetryInterval > 0 {
		b.InitialInterval = cfg.RetryInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, cfg.Retries), ctx)

	return backoff.RetryNotify(func() error {
		err := op()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ethereum.NotFound):
			return backoff.Permanent(trace.ErrNotFound)
		case isMethodNotFound(err):
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		retryCounter.Inc(1)
		log.Warn("RPC call failed, retrying", "call", what, "wait", wait, "err", err)
	})
}

func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == methodNotFound
}
