package store

import (
	"github.com/dgraph-io/badger/v3"

	"github.com/nativemint/nfm/collection"
)

const (
	keyCollectionState          = "COLLECTION:STATE:"
	prefixCollectionNeutralized = "COLLECTION:NEUTRALIZED:"
)

func (bs *BadgerStore) ReadState() (*collection.State, error) {
	val, err := bs.ReadProperty([]byte(keyCollectionState))
	if err != nil || val == nil {
		return nil, err
	}
	var s collection.State
	err = msgpackUnmarshal(val, &s)
	return &s, err
}

func (bs *BadgerStore) WriteState(s *collection.State) error {
	return bs.WriteProperty([]byte(keyCollectionState), msgpackMarshalPanic(s))
}

func (bs *BadgerStore) WriteNeutralization(r *collection.Neutralization) error {
	key := append([]byte(prefixCollectionNeutralized), tsToBytes(r.CreatedAt)...)
	return bs.WriteProperty(key, msgpackMarshalPanic(r))
}

func (bs *BadgerStore) ListNeutralizations(limit int) ([]*collection.Neutralization, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixCollectionNeutralized)
	it := txn.NewIterator(opts)
	defer it.Close()

	var records []*collection.Neutralization
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var r collection.Neutralization
		err = msgpackUnmarshal(val, &r)
		if err != nil {
			return nil, err
		}
		records = append(records, &r)
		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records, nil
}
