package document

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"writeit/internal/domain"
	"writeit/internal/imaging"
)

// Assets maps decimal image ids to image blobs.
type Assets struct {
	blobs map[string][]byte
	next  int
}

func NewAssets() *Assets {
	return &Assets{blobs: make(map[string][]byte)}
}

// Insert stores blob under a fresh id and returns the id. Images wider than
// imaging.MaxWidth are scaled down first, so the stored blob is the resized
// one. A blob that is not a decodable image does not consume an id.
func (a *Assets) Insert(blob []byte) (string, error) {
	fitted, err := imaging.FitWidth(blob, imaging.MaxWidth)
	if err != nil {
		return "", err
	}
	id := strconv.Itoa(a.next)
	a.next++
	a.blobs[id] = fitted
	return id, nil
}

// Put restores a blob under an existing id without re-encoding it.
func (a *Assets) Put(id string, blob []byte) {
	a.blobs[id] = blob
}

func (a *Assets) Resolve(id string) ([]byte, error) {
	blob, ok := a.blobs[id]
	if !ok {
		return nil, fmt.Errorf("image %q: %w", id, domain.ErrNotFound)
	}
	return blob, nil
}

// Reindex moves the id counter past every numeric id present, so images
// inserted after a load never collide with restored ones.
func (a *Assets) Reindex() {
	highest := -1
	for id := range a.blobs {
		if n, err := strconv.Atoi(id); err == nil && n > highest {
			highest = n
		}
	}
	a.next = highest + 1
}

// IDs returns the stored ids, numeric ids first in numeric order.
func (a *Assets) IDs() []string {
	ids := slices.Collect(maps.Keys(a.blobs))
	slices.SortFunc(ids, func(x, y string) int {
		nx, errX := strconv.Atoi(x)
		ny, errY := strconv.Atoi(y)
		switch {
		case errX == nil && errY == nil:
			return cmp.Compare(nx, ny)
		case errX == nil:
			return -1
		case errY == nil:
			return 1
		default:
			return cmp.Compare(x, y)
		}
	})
	return ids
}

func (a *Assets) Len() int {
	return len(a.blobs)
}

// Next is the id the next Insert will use.
func (a *Assets) Next() string {
	return strconv.Itoa(a.next)
}
