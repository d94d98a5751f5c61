// Package merkle builds Merkle trees over hex encoded hashes and produces
// and checks inclusion proofs against their roots.
package merkle

import (
	"github.com/kaspanet/ledgersim/util/hashes"
)

// ProofStep is one level of an inclusion proof.
type ProofStep struct {
	// Hash is the sibling hash at this level.
	Hash string `json:"hash"`
	// IsLeft is true when the sibling is the left operand of the pairing,
	// i.e. the proven node was the right one.
	IsLeft bool `json:"is_left"`
}

// Tree is a Merkle tree. layers[0] is the leaf layer (padded to an even
// length) and the last layer holds the root.
type Tree struct {
	leaves []string
	layers [][]string
}

// New builds a tree over leaves. The passed slice is never modified.
func New(leaves []string) *Tree {
	leavesCopy := make([]string, len(leaves), len(leaves)+1)
	copy(leavesCopy, leaves)
	if len(leavesCopy)%2 == 1 {
		leavesCopy = append(leavesCopy, leavesCopy[len(leavesCopy)-1])
	}

	tree := &Tree{leaves: leavesCopy}
	tree.layers = buildLayers(leavesCopy)
	return tree
}

func buildLayers(leaves []string) [][]string {
	if len(leaves) == 0 {
		return [][]string{{}}
	}

	layers := [][]string{leaves}
	currentLayer := leaves
	for len(currentLayer) > 1 {
		nextLayer := make([]string, 0, (len(currentLayer)+1)/2)
		for i := 0; i < len(currentLayer); i += 2 {
			left := currentLayer[i]
			right := left
			if i+1 < len(currentLayer) {
				right = currentLayer[i+1]
			}
			nextLayer = append(nextLayer, hashes.HashPair(left, right))
		}
		layers = append(layers, nextLayer)
		currentLayer = nextLayer
	}
	return layers
}

// Root returns the Merkle root, or an empty string if the tree was built
// from no leaves.
func (t *Tree) Root() string {
	top := t.layers[len(t.layers)-1]
	if len(top) == 0 {
		return ""
	}
	return top[0]
}

// Leaves returns a copy of the padded leaf layer.
func (t *Tree) Leaves() []string {
	leaves := make([]string, len(t.leaves))
	copy(leaves, t.leaves)
	return leaves
}

// Layers returns a copy of all the tree layers, leaves first.
func (t *Tree) Layers() [][]string {
	layers := make([][]string, len(t.layers))
	for i, layer := range t.layers {
		layers[i] = make([]string, len(layer))
		copy(layers[i], layer)
	}
	return layers
}

// Proof returns the inclusion proof of the first leaf equal to leafHash.
// The proof is empty when the leaf is not part of the tree.
func (t *Tree) Proof(leafHash string) []ProofStep {
	index := -1
	for i, leaf := range t.leaves {
		if leaf == leafHash {
			index = i
			break
		}
	}
	if index == -1 {
		return []ProofStep{}
	}

	proof := make([]ProofStep, 0, len(t.layers)-1)
	for _, layer := range t.layers[:len(t.layers)-1] {
		if index%2 == 1 {
			proof = append(proof, ProofStep{Hash: layer[index-1], IsLeft: true})
		} else if index+1 < len(layer) {
			proof = append(proof, ProofStep{Hash: layer[index+1], IsLeft: false})
		} else {
			// The last node of an odd layer is paired with itself
			proof = append(proof, ProofStep{Hash: layer[index], IsLeft: false})
		}
		index /= 2
	}
	return proof
}

// VerifyProof checks proof against this tree's root.
func (t *Tree) VerifyProof(leafHash string, proof []ProofStep) bool {
	return VerifyProof(leafHash, t.Root(), proof)
}

// VerifyProof folds leafHash upward through proof and reports whether the
// result equals root. An empty proof is valid only if leafHash is the root.
func VerifyProof(leafHash, root string, proof []ProofStep) bool {
	current := leafHash
	for _, step := range proof {
		if step.IsLeft {
			current = hashes.HashPair(step.Hash, current)
		} else {
			current = hashes.HashPair(current, step.Hash)
		}
	}
	return current == root
}

// Root calculates the Merkle root of leafHashes without keeping the tree.
func Root(leafHashes []string) string {
	return New(leafHashes).Root()
}
