package m3u

import (
	"fmt"
	"io"
)

// Encoder accumulates channels and serializes them as an M3U document.
// Insertion order is rendering order is file order.
type Encoder struct {
	items []*Channel
}

func NewEncoder() *Encoder {
	return &Encoder{items: []*Channel{}}
}

func (e *Encoder) Add(item *Channel) {
	e.items = append(e.items, item)
}

// Channels returns the accumulated channels in insertion order
func (e *Encoder) Channels() []*Channel {
	return e.items
}

func (e *Encoder) Len() int {
	return len(e.items)
}

// Encode writes the full playlist: the #EXTM3U header followed by one record
// per channel
func (e *Encoder) Encode(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "#EXTM3U\n"); err != nil {
		return err
	}

	for _, item := range e.items {
		if err := item.encode(w); err != nil {
			return err
		}
	}

	return nil
}
