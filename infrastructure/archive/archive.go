// Package archive exports a snapshot of a ledger into a LevelDB database
// and reads it back.
package archive

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/kaspanet/ledgersim/domain/blockchain"
	"github.com/kaspanet/ledgersim/domain/ledgerconfig"
	"github.com/kaspanet/ledgersim/domain/tangle"
)

var (
	blockPrefix          = []byte("block/")
	dagTransactionPrefix = []byte("dag/")
	tipPrefix            = []byte("tip/")
	paramsKey            = []byte("meta/params")
	commitmentKey        = []byte("meta/commitment")
)

var defaultOptions = opt.Options{
	Compression: opt.SnappyCompression,
}

// Snapshot is everything an archive holds.
type Snapshot struct {
	Params          *ledgerconfig.Params
	Blocks          []*blockchain.Block
	DAGTransactions []*tangle.DAGTransaction
	Tips            []string
	DAGCommitment   string
}

// Archive is a LevelDB database holding one snapshot.
type Archive struct {
	ldb *leveldb.DB
}

// Open opens the archive at path, creating it if it doesn't exist.
func Open(path string) (*Archive, error) {
	ldb, err := leveldb.OpenFile(path, &defaultOptions)

	// If the database is corrupted, attempt to recover.
	if _, corrupted := err.(*ldbErrors.ErrCorrupted); corrupted {
		log.Warnf("LevelDB corruption detected for path %s: %s", path, err)
		ldb, err = leveldb.RecoverFile(path, &defaultOptions)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to recover archive %s", path)
		}
		log.Warnf("LevelDB recovered from corruption for path %s", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open archive %s", path)
	}

	return &Archive{ldb: ldb}, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	return errors.WithStack(a.ldb.Close())
}

func blockKey(index uint64) []byte {
	// Zero padding keeps the keys in chain order
	return append(append([]byte{}, blockPrefix...), fmt.Sprintf("%020d", index)...)
}

func prefixedKey(prefix []byte, hash string) []byte {
	return append(append([]byte{}, prefix...), hash...)
}

// Write replaces the archive contents with snapshot in one batch.
func (a *Archive) Write(snapshot *Snapshot) error {
	batch := new(leveldb.Batch)

	iterator := a.ldb.NewIterator(nil, nil)
	for iterator.Next() {
		batch.Delete(append([]byte{}, iterator.Key()...))
	}
	iterator.Release()
	err := iterator.Error()
	if err != nil {
		return errors.WithStack(err)
	}

	put := func(key []byte, value interface{}) error {
		serialized, err := json.Marshal(value)
		if err != nil {
			return errors.Wrapf(err, "failed to serialize %s", key)
		}
		batch.Put(key, serialized)
		return nil
	}

	if snapshot.Params != nil {
		err = put(paramsKey, snapshot.Params)
		if err != nil {
			return err
		}
	}
	batch.Put(commitmentKey, []byte(snapshot.DAGCommitment))
	for _, block := range snapshot.Blocks {
		err = put(blockKey(block.Index), block)
		if err != nil {
			return err
		}
	}
	for _, dagTransaction := range snapshot.DAGTransactions {
		err = put(prefixedKey(dagTransactionPrefix, dagTransaction.Hash), dagTransaction)
		if err != nil {
			return err
		}
	}
	for _, tip := range snapshot.Tips {
		batch.Put(prefixedKey(tipPrefix, tip), []byte{})
	}

	err = a.ldb.Write(batch, nil)
	if err != nil {
		return errors.Wrap(err, "failed to write the archive")
	}
	log.Infof("Archived %d blocks and %d tangle transactions",
		len(snapshot.Blocks), len(snapshot.DAGTransactions))
	return nil
}

// Read loads the snapshot held by the archive. Blocks come back in chain
// order and tangle transactions and tips in hash order.
func (a *Archive) Read() (*Snapshot, error) {
	snapshot := &Snapshot{
		Blocks:          []*blockchain.Block{},
		DAGTransactions: []*tangle.DAGTransaction{},
		Tips:            []string{},
	}

	serializedParams, err := a.ldb.Get(paramsKey, nil)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.WithStack(err)
	}
	if err == nil {
		snapshot.Params = &ledgerconfig.Params{}
		err = json.Unmarshal(serializedParams, snapshot.Params)
		if err != nil {
			return nil, errors.Wrap(err, "failed to deserialize the params")
		}
	}

	commitment, err := a.ldb.Get(commitmentKey, nil)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.WithStack(err)
	}
	snapshot.DAGCommitment = string(commitment)

	err = a.forEach(blockPrefix, func(key, value []byte) error {
		block := &blockchain.Block{}
		err := json.Unmarshal(value, block)
		if err != nil {
			return errors.Wrapf(err, "failed to deserialize %s", key)
		}
		snapshot.Blocks = append(snapshot.Blocks, block)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = a.forEach(dagTransactionPrefix, func(key, value []byte) error {
		dagTransaction := &tangle.DAGTransaction{}
		err := json.Unmarshal(value, dagTransaction)
		if err != nil {
			return errors.Wrapf(err, "failed to deserialize %s", key)
		}
		snapshot.DAGTransactions = append(snapshot.DAGTransactions, dagTransaction)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = a.forEach(tipPrefix, func(key, _ []byte) error {
		snapshot.Tips = append(snapshot.Tips, string(key[len(tipPrefix):]))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (a *Archive) forEach(prefix []byte, f func(key, value []byte) error) error {
	iterator := a.ldb.NewIterator(util.BytesPrefix(prefix), nil)
	defer iterator.Release()

	for iterator.Next() {
		err := f(iterator.Key(), iterator.Value())
		if err != nil {
			return err
		}
	}
	return errors.WithStack(iterator.Error())
}
