package cbm

import "fmt"

// Link addresses one object inside an MC data branch: the input slot, the
// event (entry) number in that slot's chain and the position within the
// event's collection.
type Link struct {
	File  int `json:"file"`
	Entry int `json:"entry"`
	Index int `json:"index"`
}

func (l Link) String() string {
	return fmt.Sprintf("(file %d, entry %d, index %d)", l.File, l.Entry, l.Index)
}
