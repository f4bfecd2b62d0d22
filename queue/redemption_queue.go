package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/provlabs/navvault/types"

	"cosmossdk.io/collections"
	"cosmossdk.io/collections/indexes"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RedemptionQueueIndexes defines the indexes for the redemption queue.
type RedemptionQueueIndexes struct {
	ByHolder *indexes.Multi[sdk.AccAddress, uint64, types.RedemptionQueueEntry]
}

// IndexesList returns the list of indexes for the redemption queue.
func (i RedemptionQueueIndexes) IndexesList() []collections.Index[uint64, types.RedemptionQueueEntry] {
	return []collections.Index[uint64, types.RedemptionQueueEntry]{i.ByHolder}
}

// NewRedemptionQueueIndexes creates a new RedemptionQueueIndexes object.
func NewRedemptionQueueIndexes(sb *collections.SchemaBuilder) RedemptionQueueIndexes {
	return RedemptionQueueIndexes{
		ByHolder: indexes.NewMulti(
			sb,
			types.RedemptionQueueByHolderIndexPrefix,
			types.RedemptionQueueByHolderIndexName,
			sdk.AccAddressKey,
			collections.Uint64Key,
			func(_ uint64, entry types.RedemptionQueueEntry) (sdk.AccAddress, error) {
				return sdk.AccAddressFromBech32(entry.Holder)
			},
		),
	}
}

// RedemptionQueue is the FIFO of redemptions the vault could not pay in full.
// Entries are keyed by a monotonically increasing sequence, so the head is
// always the lowest key.
type RedemptionQueue struct {
	// IndexedMap holds the entries keyed by their position in the queue.
	IndexedMap *collections.IndexedMap[uint64, types.RedemptionQueueEntry, RedemptionQueueIndexes]
	// Sequence is the next position at the tail of the queue.
	Sequence collections.Sequence
}

// NewRedemptionQueue creates a new RedemptionQueue.
func NewRedemptionQueue(builder *collections.SchemaBuilder) *RedemptionQueue {
	return &RedemptionQueue{
		IndexedMap: collections.NewIndexedMap(
			builder,
			types.RedemptionQueuePrefix,
			types.RedemptionQueueName,
			collections.Uint64Key,
			types.JSONValue[types.RedemptionQueueEntry](),
			NewRedemptionQueueIndexes(builder),
		),
		Sequence: collections.NewSequence(builder, types.RedemptionQueueSeqPrefix, types.RedemptionQueueSeqName),
	}
}

// Enqueue appends an entry to the tail of the queue and returns its id.
func (q *RedemptionQueue) Enqueue(ctx context.Context, entry types.RedemptionQueueEntry) (uint64, error) {
	if err := entry.Validate(); err != nil {
		return 0, err
	}
	id, err := q.Sequence.Next(ctx)
	if err != nil {
		return 0, err
	}
	return id, q.IndexedMap.Set(ctx, id, entry)
}

// Head returns the oldest entry. found is false when the queue is empty.
func (q *RedemptionQueue) Head(ctx context.Context) (id uint64, entry types.RedemptionQueueEntry, found bool, err error) {
	err = q.IndexedMap.Walk(ctx, nil, func(key uint64, value types.RedemptionQueueEntry) (bool, error) {
		id, entry, found = key, value, true
		return true, nil
	})
	return id, entry, found, err
}

// Get returns the entry at id.
func (q *RedemptionQueue) Get(ctx context.Context, id uint64) (types.RedemptionQueueEntry, error) {
	return q.IndexedMap.Get(ctx, id)
}

// Update rewrites an existing entry in place, keeping its position.
func (q *RedemptionQueue) Update(ctx context.Context, id uint64, entry types.RedemptionQueueEntry) error {
	has, err := q.IndexedMap.Has(ctx, id)
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("redemption queue entry %d: %w", id, collections.ErrNotFound)
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	return q.IndexedMap.Set(ctx, id, entry)
}

// Dequeue removes the entry at id. Removing a missing entry is a no-op.
func (q *RedemptionQueue) Dequeue(ctx context.Context, id uint64) error {
	ok, err := q.IndexedMap.Has(ctx, id)
	if err != nil || !ok {
		return err
	}
	return q.IndexedMap.Remove(ctx, id)
}

// IsEmpty reports whether the queue holds no entries.
func (q *RedemptionQueue) IsEmpty(ctx context.Context) (bool, error) {
	_, _, found, err := q.Head(ctx)
	return !found, err
}

// Len returns the number of entries in the queue.
func (q *RedemptionQueue) Len(ctx context.Context) (uint64, error) {
	var n uint64
	err := q.IndexedMap.Walk(ctx, nil, func(_ uint64, _ types.RedemptionQueueEntry) (bool, error) {
		n++
		return false, nil
	})
	return n, err
}

// Walk iterates over all entries from head to tail.
// Iteration stops when the callback returns stop=true or an error.
func (q *RedemptionQueue) Walk(ctx context.Context, fn func(id uint64, entry types.RedemptionQueueEntry) (stop bool, err error)) error {
	return q.IndexedMap.Walk(ctx, nil, fn)
}

// WalkByHolder iterates over the entries payable to holder, in queue order.
// Iteration stops when the callback returns stop=true or an error.
func (q *RedemptionQueue) WalkByHolder(ctx context.Context, holder sdk.AccAddress, fn func(id uint64, entry types.RedemptionQueueEntry) (stop bool, err error)) error {
	iter, err := q.IndexedMap.Indexes.ByHolder.MatchExact(ctx, holder)
	if err != nil {
		return err
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		id, err := iter.PrimaryKey()
		if err != nil {
			return err
		}
		entry, err := q.IndexedMap.Get(ctx, id)
		if err != nil {
			return err
		}
		if stop, err := fn(id, entry); stop || err != nil {
			return err
		}
	}
	return nil
}

// Import imports the redemption queue from genesis.
func (q *RedemptionQueue) Import(ctx context.Context, genQueue types.GenesisRedemptionQueue) error {
	for _, e := range genQueue.Entries {
		if err := q.IndexedMap.Set(ctx, e.ID, e.Entry); err != nil {
			return fmt.Errorf("failed to import redemption queue entry %d: %w", e.ID, err)
		}
	}
	if err := q.Sequence.Set(ctx, genQueue.LatestSequenceNumber); err != nil {
		return fmt.Errorf("failed to set latest sequence number for redemption queue: %w", err)
	}
	return nil
}

// Export exports the redemption queue to genesis.
func (q *RedemptionQueue) Export(ctx context.Context) (types.GenesisRedemptionQueue, error) {
	entries := make([]types.GenesisRedemptionEntry, 0)
	err := q.Walk(ctx, func(id uint64, entry types.RedemptionQueueEntry) (bool, error) {
		entries = append(entries, types.GenesisRedemptionEntry{ID: id, Entry: entry})
		return false, nil
	})
	if err != nil {
		return types.GenesisRedemptionQueue{}, fmt.Errorf("failed to walk redemption queue: %w", err)
	}

	latest, err := q.Sequence.Peek(ctx)
	if err != nil && !errors.Is(err, collections.ErrNotFound) {
		return types.GenesisRedemptionQueue{}, fmt.Errorf("failed to get latest sequence number for redemption queue: %w", err)
	}

	return types.GenesisRedemptionQueue{
		LatestSequenceNumber: latest,
		Entries:              entries,
	}, nil
}
