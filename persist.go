package chatter

// Persister stores and restores a Store snapshot as a single blob.
// Load returns ErrNoSnapshot when nothing has been saved yet.
type Persister interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
}
