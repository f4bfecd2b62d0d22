package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	sdkerrors "cosmossdk.io/errors"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
)

var (
	SequencePrefix = collections.NewPrefix(0)
	OutboxPrefix   = collections.NewPrefix(1)
)

const Codespace = "oracle"

var ErrUnknownRequest = sdkerrors.Register(Codespace, 2, "unknown oracle request")

// Request is an outstanding job for the off-chain oracle.
type Request struct {
	Kind        string `json:"kind"`
	Payload     []byte `json:"payload"`
	SubmittedAt int64  `json:"submitted_at"`
}

// Transport hands out request ids and keeps an outbox of requests the oracle
// has not answered yet. Ids are derived from a sequence so they are unique
// and deterministic.
type Transport struct {
	schema    collections.Schema
	namespace string

	Sequence collections.Sequence
	Outbox   collections.Map[string, Request]
}

// NewTransport creates a transport whose ids are namespaced by namespace.
func NewTransport(storeService store.KVStoreService, namespace string) *Transport {
	sb := collections.NewSchemaBuilder(storeService)
	t := &Transport{
		namespace: namespace,
		Sequence:  collections.NewSequence(sb, SequencePrefix, "sequence"),
		Outbox:    collections.NewMap(sb, OutboxPrefix, "outbox", collections.StringKey, types.JSONValue[Request]()),
	}
	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	t.schema = schema
	return t
}

// RequestID returns the id issued for sequence number seq.
func (t *Transport) RequestID(seq uint64) string {
	buf := make([]byte, 0, len(t.namespace)+8)
	buf = append(buf, t.namespace...)
	buf = binary.BigEndian.AppendUint64(buf, seq)
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// SubmitRequest stores a new request in the outbox and returns its id.
func (t *Transport) SubmitRequest(ctx context.Context, kind string, payload []byte) (string, error) {
	seq, err := t.Sequence.Next(ctx)
	if err != nil {
		return "", err
	}
	id := t.RequestID(seq)
	req := Request{
		Kind:        kind,
		Payload:     payload,
		SubmittedAt: sdk.UnwrapSDKContext(ctx).BlockTime().Unix(),
	}
	if err := t.Outbox.Set(ctx, id, req); err != nil {
		return "", fmt.Errorf("failed to store oracle request %s: %w", id, err)
	}
	return id, nil
}

// Acknowledge removes an answered request from the outbox.
func (t *Transport) Acknowledge(ctx context.Context, requestID string) error {
	has, err := t.Outbox.Has(ctx, requestID)
	if err != nil {
		return err
	}
	if !has {
		return sdkerrors.Wrapf(ErrUnknownRequest, "request %q", requestID)
	}
	return t.Outbox.Remove(ctx, requestID)
}

// Get returns an outstanding request.
func (t *Transport) Get(ctx context.Context, requestID string) (Request, bool, error) {
	req, err := t.Outbox.Get(ctx, requestID)
	if errors.Is(err, collections.ErrNotFound) {
		return Request{}, false, nil
	}
	return req, err == nil, err
}

// Walk iterates over outstanding requests in id order.
func (t *Transport) Walk(ctx context.Context, fn func(id string, req Request) (stop bool, err error)) error {
	return t.Outbox.Walk(ctx, nil, fn)
}
