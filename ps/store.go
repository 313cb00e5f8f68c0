package ps

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"

	"github.com/simpledb/simpledb/core"
)

var (
	ErrNotInitialized = errors.New("snapshot store not initialized")
	ErrNoSnapshot     = errors.New("no snapshot committed yet")
)

// Identity names the author of a snapshot commit.
type Identity struct {
	Name  string
	Email string
}

// Transaction identifies one committed snapshot.
type Transaction struct {
	Id     string
	When   time.Time
	Author string
}

func (transaction Transaction) String() string {
	return fmt.Sprintf("Transaction{Id: %s, When: %s, Author: %s}", transaction.Id, transaction.When, transaction.Author)
}

// Store persists database snapshots as commits in a Git repository. Each
// Save writes one table file per table plus a config file, so history is
// browsable with ordinary Git tooling.
type Store struct {
	repo         *git.Repository
	mu           sync.Mutex
	isMemoryMode bool
}

func (s *Store) IsInitialized() bool {
	return s != nil && s.repo != nil
}

func (s *Store) ensureInitialized() error {
	if !s.IsInitialized() {
		return ErrNotInitialized
	}
	return nil
}

// NewMemoryStore opens a store backed entirely by memory, for tests and
// ephemeral instances.
func NewMemoryStore() (*Store, error) {
	wt := memfs.New()
	storer := memory.NewStorage()

	repo, err := git.Init(storer, git.WithWorkTree(wt))
	if err != nil {
		return nil, err
	}

	return &Store{repo: repo, isMemoryMode: true}, nil
}

// NewFileStore opens or initializes a store under baseDir.
func NewFileStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	wt := osfs.New(baseDir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, err
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository
	if _, statErr := os.Stat(fs.Root()); statErr != nil {
		repo, err = git.Init(storer, git.WithWorkTree(wt))
	} else {
		repo, err = git.Open(storer, wt)
	}
	if err != nil {
		return nil, err
	}

	return &Store{repo: repo}, nil
}

// Save commits the full state of the database as one snapshot. Tables that
// no longer exist are removed from the tree.
func (s *Store) Save(database *core.Database, identity Identity) (Transaction, error) {
	if err := s.ensureInitialized(); err != nil {
		return Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	currentTree, err := s.currentTree()
	if err != nil {
		return Transaction{}, err
	}

	snapshot, err := encodeSnapshot(database)
	if err != nil {
		return Transaction{}, err
	}

	changes := make([]treeChange, 0, len(snapshot)+1)
	for path, data := range snapshot {
		blobHash, err := s.createBlob(data)
		if err != nil {
			return Transaction{}, fmt.Errorf("failed to create blob for %s: %w", path, err)
		}
		changes = append(changes, treeChange{Path: path, BlobHash: blobHash})
	}

	// drop table files that vanished since the last snapshot
	for _, stale := range s.staleTableFiles(snapshot) {
		changes = append(changes, treeChange{Path: stale, IsDelete: true})
	}

	newTree, err := s.batchUpdateTree(currentTree, changes)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to update tree: %w", err)
	}

	message := fmt.Sprintf("Snapshot of %d table(s)", len(database.TableNames()))
	txn, err := s.commitTree(newTree, identity, message)
	if err != nil {
		return Transaction{}, err
	}

	if err := s.syncWorktree(); err != nil {
		return Transaction{}, fmt.Errorf("failed to sync worktree: %w", err)
	}
	return txn, nil
}

// Load rebuilds a database from the latest snapshot. Indexes recorded in
// the snapshot are recreated and backfilled from the adopted rows.
func (s *Store) Load() (*core.Database, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	headRef, err := s.repo.Head()
	if err != nil {
		return nil, ErrNoSnapshot
	}
	return s.loadCommit(headRef.Hash())
}

// LoadAt rebuilds a database from a specific snapshot, leaving HEAD
// untouched.
func (s *Store) LoadAt(asof Transaction) (*core.Database, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadCommit(plumbing.NewHash(asof.Id))
}

func (s *Store) loadCommit(hash plumbing.Hash) (*core.Database, error) {
	commit, err := s.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s not found: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	cfg := core.DefaultConfig()
	if data, err := readTreeFile(tree, configFile); err == nil {
		if loaded, err := decodeConfig(data); err == nil {
			cfg = loaded
		}
	}

	database := core.NewDatabase(cfg)

	entries, err := listTreeEntries(tree, tablesDir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		data, err := readTreeFile(tree, tablesDir+"/"+entry.Name)
		if err != nil {
			return nil, err
		}
		table, err := decodeTable(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("corrupt snapshot file %s: %w", entry.Name, err)
		}
		if err := database.AdoptTable(table); err != nil {
			return nil, err
		}
	}

	return database, nil
}

// LatestTransaction reports the snapshot at HEAD, or a zero Transaction
// when nothing has been saved yet.
func (s *Store) LatestTransaction() Transaction {
	headRef, err := s.repo.Head()
	if err != nil || headRef == nil {
		return Transaction{}
	}

	commit, err := s.repo.CommitObject(headRef.Hash())
	if err != nil {
		return Transaction{}
	}

	author := ""
	if commit.Author.Name != "" || commit.Author.Email != "" {
		author = fmt.Sprintf("%s <%s>", commit.Author.Name, commit.Author.Email)
	}

	return Transaction{
		Id:     headRef.Hash().String(),
		When:   commit.Committer.When,
		Author: author,
	}
}

// History lists snapshots newest first.
func (s *Store) History() []Transaction {
	var transactions []Transaction

	cIter, err := s.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil
	}
	cIter.ForEach(func(c *object.Commit) error {
		transactions = append(transactions, Transaction{
			Id:     c.Hash.String(),
			When:   c.Committer.When,
			Author: fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
		})
		return nil
	})

	return transactions
}

// staleTableFiles lists table files present at HEAD but absent from the
// snapshot being written.
func (s *Store) staleTableFiles(snapshot map[string][]byte) []string {
	entries, err := s.listEntries(tablesDir)
	if err != nil {
		return nil
	}

	var stale []string
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		path := tablesDir + "/" + entry.Name
		if _, ok := snapshot[path]; !ok {
			stale = append(stale, path)
		}
	}
	return stale
}
