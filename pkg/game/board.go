package game

import (
	"math/rand"
	"sync"
)

const (
	// BoardSide is the width and height of a bingo board.
	BoardSide = 5
	// BoardSize is the number of cells on a board, and also the highest
	// number that can be called.
	BoardSize = BoardSide * BoardSide
)

// Board is a player's private arrangement of the numbers 1..25, row-major.
type Board [BoardSize]int

// Marks records which cells of the matching Board have been called.
type Marks [BoardSize]bool

// IndexOf returns the cell holding number, or -1.
func (b Board) IndexOf(number int) int {
	for i, n := range b {
		if n == number {
			return i
		}
	}
	return -1
}

// BoardGenerator hands out a fresh board for every seated player.
type BoardGenerator interface {
	GenerateBoard() Board
}

// Shuffler generates boards with a seeded Fisher-Yates shuffle. It is safe
// for concurrent use.
type Shuffler struct {
	lock sync.Mutex
	rng  *rand.Rand
}

func NewShuffler(seed int64) *Shuffler {
	return &Shuffler{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GenerateBoard returns a uniformly random permutation of 1..25.
func (s *Shuffler) GenerateBoard() Board {
	var board Board
	for i := range board {
		board[i] = i + 1
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	for i := len(board) - 1; i >= 1; i-- {
		j := s.rng.Intn(i + 1)
		board[i], board[j] = board[j], board[i]
	}

	return board
}
