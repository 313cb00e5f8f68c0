package ps

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/object"
)

// createBlob writes a blob object directly to the object store without
// filesystem I/O.
func (s *Store) createBlob(data []byte) (plumbing.Hash, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to create blob writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("failed to write blob data: %w", err)
	}
	writer.Close()

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store blob: %w", err)
	}
	return hash, nil
}

// currentTree returns the tree hash at HEAD, or ZeroHash before the first
// commit.
func (s *Store) currentTree() (plumbing.Hash, error) {
	headRef, err := s.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, nil
	}

	commit, err := s.repo.CommitObject(headRef.Hash())
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get head commit: %w", err)
	}
	return commit.TreeHash, nil
}

func (s *Store) treeEntries(treeHash plumbing.Hash) (map[string]object.TreeEntry, error) {
	entries := make(map[string]object.TreeEntry)
	if treeHash == plumbing.ZeroHash {
		return entries, nil
	}

	tree, err := object.GetTree(s.repo.Storer, treeHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	for _, entry := range tree.Entries {
		entries[entry.Name] = entry
	}
	return entries, nil
}

func (s *Store) buildTree(entries []object.TreeEntry) (plumbing.Hash, error) {
	// Git requires entries sorted with directories compared as name+"/"
	sort.Slice(entries, func(i, j int) bool {
		nameI := entries[i].Name
		nameJ := entries[j].Name
		if entries[i].Mode == filemode.Dir {
			nameI += "/"
		}
		if entries[j].Mode == filemode.Dir {
			nameJ += "/"
		}
		return nameI < nameJ
	})

	tree := &object.Tree{Entries: entries}
	obj := s.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree: %w", err)
	}

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store tree: %w", err)
	}
	return hash, nil
}

// treeChange is one file to write or remove in a snapshot tree.
type treeChange struct {
	Path     string
	BlobHash plumbing.Hash
	IsDelete bool
}

// batchUpdateTree applies a set of changes against a tree in one pass,
// rebuilding each touched subtree once.
func (s *Store) batchUpdateTree(rootTreeHash plumbing.Hash, changes []treeChange) (plumbing.Hash, error) {
	if len(changes) == 0 {
		return rootTreeHash, nil
	}

	grouped := make(map[string][]treeChange)
	leafChanges := make([]treeChange, 0)

	for _, change := range changes {
		parts := strings.Split(change.Path, "/")
		if len(parts) == 1 {
			leafChanges = append(leafChanges, change)
		} else {
			dir := parts[0]
			grouped[dir] = append(grouped[dir], treeChange{
				Path:     strings.Join(parts[1:], "/"),
				BlobHash: change.BlobHash,
				IsDelete: change.IsDelete,
			})
		}
	}

	entries, err := s.treeEntries(rootTreeHash)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	for _, change := range leafChanges {
		if change.IsDelete {
			delete(entries, change.Path)
		} else {
			entries[change.Path] = object.TreeEntry{
				Name: change.Path,
				Mode: filemode.Regular,
				Hash: change.BlobHash,
			}
		}
	}

	for dir, subChanges := range grouped {
		var subTreeHash plumbing.Hash
		if existing, ok := entries[dir]; ok && existing.Mode == filemode.Dir {
			subTreeHash = existing.Hash
		}

		newSubTreeHash, err := s.batchUpdateTree(subTreeHash, subChanges)
		if err != nil {
			return plumbing.ZeroHash, err
		}

		if newSubTreeHash == plumbing.ZeroHash {
			delete(entries, dir)
		} else {
			entries[dir] = object.TreeEntry{
				Name: dir,
				Mode: filemode.Dir,
				Hash: newSubTreeHash,
			}
		}
	}

	if len(entries) == 0 {
		return plumbing.ZeroHash, nil
	}

	entrySlice := make([]object.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		entrySlice = append(entrySlice, entry)
	}
	return s.buildTree(entrySlice)
}

// commitTree records a tree as a new commit on the current branch and
// advances HEAD.
func (s *Store) commitTree(treeHash plumbing.Hash, identity Identity, message string) (Transaction, error) {
	actualTreeHash := treeHash
	if treeHash == plumbing.ZeroHash {
		emptyTree := &object.Tree{Entries: []object.TreeEntry{}}
		obj := s.repo.Storer.NewEncodedObject()
		if err := emptyTree.Encode(obj); err != nil {
			return Transaction{}, fmt.Errorf("failed to encode empty tree: %w", err)
		}
		var err error
		actualTreeHash, err = s.repo.Storer.SetEncodedObject(obj)
		if err != nil {
			return Transaction{}, fmt.Errorf("failed to store empty tree: %w", err)
		}
	}

	var parentHashes []plumbing.Hash
	headRef, err := s.repo.Head()
	if err == nil {
		parentHashes = []plumbing.Hash{headRef.Hash()}
	}

	sig := object.Signature{
		Name:  identity.Name,
		Email: identity.Email,
		When:  time.Now(),
	}

	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     actualTreeHash,
		ParentHashes: parentHashes,
	}

	obj := s.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return Transaction{}, fmt.Errorf("failed to encode commit: %w", err)
	}
	commitHash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to store commit: %w", err)
	}

	branchName := plumbing.Master
	if headRef != nil && headRef.Name().IsBranch() {
		branchName = headRef.Name()
	}
	ref := plumbing.NewHashReference(branchName, commitHash)
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return Transaction{}, fmt.Errorf("failed to update HEAD: %w", err)
	}

	return Transaction{
		Id:     commitHash.String(),
		When:   sig.When,
		Author: fmt.Sprintf("%s <%s>", sig.Name, sig.Email),
	}, nil
}

// syncWorktree updates the worktree filesystem to match HEAD. Memory mode
// skips this since reads go through the Git tree directly.
func (s *Store) syncWorktree() error {
	if s.isMemoryMode {
		return nil
	}

	wt, err := s.repo.Worktree()
	if err != nil {
		return err
	}
	headRef, err := s.repo.Head()
	if err != nil {
		return err
	}

	commit, err := s.repo.CommitObject(headRef.Hash())
	if err != nil {
		return err
	}
	tree, err := commit.Tree()
	if err != nil {
		return err
	}

	// git reset fails on an empty tree, so clean the filesystem by hand
	if len(tree.Entries) == 0 {
		fs := wt.Filesystem
		entries, err := fs.ReadDir("/")
		if err != nil {
			return nil
		}
		for _, entry := range entries {
			if entry.Name() != ".git" {
				fs.Remove(entry.Name())
			}
		}
		return nil
	}

	return wt.Reset(&git.ResetOptions{
		Mode:   git.HardReset,
		Commit: headRef.Hash(),
	})
}

// headTree returns the tree at HEAD.
func (s *Store) headTree() (*object.Tree, error) {
	headRef, err := s.repo.Head()
	if err != nil {
		return nil, ErrNoSnapshot
	}

	commit, err := s.repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	return tree, nil
}

// readTreeFile reads a file from a snapshot tree.
func readTreeFile(tree *object.Tree, filePath string) ([]byte, error) {
	file, err := tree.File(filePath)
	if err != nil {
		return nil, fmt.Errorf("file not found: %w", err)
	}
	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read contents: %w", err)
	}
	return []byte(content), nil
}

// dirEntry is a directory listing item from the Git tree.
type dirEntry struct {
	Name  string
	IsDir bool
}

// listEntries lists a directory from the Git tree at HEAD. A missing
// directory lists as empty.
func (s *Store) listEntries(dirPath string) ([]dirEntry, error) {
	tree, err := s.headTree()
	if err != nil {
		return nil, nil
	}
	return listTreeEntries(tree, dirPath)
}

// listTreeEntries lists a directory from a snapshot tree. A missing
// directory lists as empty.
func listTreeEntries(tree *object.Tree, dirPath string) ([]dirEntry, error) {
	targetTree := tree
	var err error
	if dirPath != "" && dirPath != "." {
		targetTree, err = tree.Tree(dirPath)
		if err != nil {
			return nil, nil
		}
	}

	var entries []dirEntry
	for _, entry := range targetTree.Entries {
		entries = append(entries, dirEntry{
			Name:  entry.Name,
			IsDir: entry.Mode == filemode.Dir,
		})
	}
	return entries, nil
}
