package badger

import "errors"

// Repositories bundles every repository sharing one backend.
type Repositories struct {
	Backend       *Backend
	Records       *RecordRepository
	Embeddings    *EmbeddingRepository
	Index         *SearchIndex
	Conversations *ConversationRepository
	States        *StateStore
}

// Open opens a backend at path and creates all repositories on it.
// Caller must Close the result when done.
func Open(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	repos := &Repositories{Backend: backend}
	if repos.Records, err = newRecordRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if repos.Embeddings, err = newEmbeddingRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if repos.Index, err = newSearchIndex(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if repos.Conversations, err = newConversationRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if repos.States, err = newStateStore(backend); err != nil {
		repos.Conversations.Close()
		backend.Close()
		return nil, err
	}
	return repos, nil
}

// Close releases the repositories and closes the backend.
func (r *Repositories) Close() error {
	return errors.Join(
		r.Conversations.Close(),
		r.States.Close(),
		r.Backend.Close(),
	)
}
