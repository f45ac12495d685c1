package localstore

import "encoding/json"

// OrderRecord is one persisted order snapshot. ID is the order's uid; XID
// carries the extra server-side key invoiced orders need; Data is the
// serialized export payload pushed to the backend.
type OrderRecord struct {
	ID   string          `json:"id"`
	XID  string          `json:"xid,omitempty"`
	Data json.RawMessage `json:"data"`
}

// OrderStore persists order snapshots in two named record lists: one for
// drafts that may still change and one for settled orders awaiting push.
// Records are keyed by uid; saving a uid again supersedes the old snapshot.
type OrderStore struct {
	store       *Store
	unpaidName  string
	settledName string
}

// NewOrderStore wires an OrderStore over an attached Store. The names pick
// which record lists the orders live under, so regular and checkout orders
// keep separate queues.
func NewOrderStore(store *Store, unpaidName, settledName string) *OrderStore {
	return &OrderStore{
		store:       store,
		unpaidName:  unpaidName,
		settledName: settledName,
	}
}

func (o *OrderStore) load(name string) ([]OrderRecord, error) {
	var records []OrderRecord
	if _, err := o.store.Load(name, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (o *OrderStore) save(name string, id string, record OrderRecord) error {
	records, err := o.load(name)
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	kept = append(kept, record)
	return o.store.Save(name, kept)
}

func (o *OrderStore) remove(name string, id string) error {
	records, err := o.load(name)
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return nil
	}
	return o.store.Save(name, kept)
}

// SaveUnpaid persists a draft snapshot, superseding any earlier snapshot of
// the same order.
func (o *OrderStore) SaveUnpaid(id string, data json.RawMessage) error {
	return o.save(o.unpaidName, id, OrderRecord{ID: id, Data: data})
}

// RemoveUnpaid drops the draft snapshot of the order, if present.
func (o *OrderStore) RemoveUnpaid(id string) error {
	return o.remove(o.unpaidName, id)
}

// LoadUnpaid returns all draft snapshots.
func (o *OrderStore) LoadUnpaid() ([]OrderRecord, error) {
	return o.load(o.unpaidName)
}

// SaveSettled persists a finalized order for pushing. It also drops any
// draft snapshot of the same order, so a crash between finalize and push
// cannot resurrect the draft.
func (o *OrderStore) SaveSettled(record OrderRecord) error {
	if err := o.save(o.settledName, record.ID, record); err != nil {
		return err
	}
	return o.remove(o.unpaidName, record.ID)
}

// RemoveSettled drops a pushed order once the backend acknowledged it.
func (o *OrderStore) RemoveSettled(id string) error {
	return o.remove(o.settledName, id)
}

// LoadSettled returns all finalized orders not yet acknowledged by the
// backend, in the order they were settled.
func (o *OrderStore) LoadSettled() ([]OrderRecord, error) {
	return o.load(o.settledName)
}

// PendingCount reports how many settled orders await acknowledgement.
func (o *OrderStore) PendingCount() (int, error) {
	records, err := o.load(o.settledName)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
