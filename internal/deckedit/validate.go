package deckedit

import "github.com/vytor/studyflash/internal/models"

// ValidateIDs checks that every update and delete refers to a card that is in
// the snapshot or was created with an explicit id by an earlier add in the
// same batch, and was not deleted by an earlier command. It returns
// *UnknownIDError for the first id that is not.
func ValidateIDs(snapshot models.DeckSnapshot, cmds []Command) error {
	known := snapshot.IDs()
	check := func(id string) error {
		if _, ok := known[id]; !ok {
			return &UnknownIDError{ID: id}
		}
		return nil
	}
	// Deleting twice is allowed; updating a deleted card is not.
	deleted := map[string]struct{}{}
	remove := func(id string) error {
		if _, ok := deleted[id]; ok {
			return nil
		}
		if err := check(id); err != nil {
			return err
		}
		delete(known, id)
		deleted[id] = struct{}{}
		return nil
	}

	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case AddCardCommand:
			if c.Card.ID != "" {
				known[c.Card.ID] = struct{}{}
				delete(deleted, c.Card.ID)
			}
		case BulkAddCommand:
			for _, card := range c.Cards {
				if card.ID != "" {
					known[card.ID] = struct{}{}
					delete(deleted, card.ID)
				}
			}
		case UpdateCardCommand:
			if err := check(c.Update.ID); err != nil {
				return err
			}
		case BulkUpdateCommand:
			for _, u := range c.Updates {
				if err := check(u.ID); err != nil {
					return err
				}
			}
		case DeleteCardCommand:
			if err := remove(c.ID); err != nil {
				return err
			}
		case BulkDeleteCommand:
			for _, id := range c.IDs {
				if err := remove(id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Select returns the commands at the given indexes, in the order given.
// Nothing is returned if any index is out of range.
func Select(cmds []RawCommand, indexes []int) ([]RawCommand, error) {
	out := make([]RawCommand, 0, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= len(cmds) {
			return nil, &IndexOutOfRangeError{Index: i, Len: len(cmds)}
		}
		out = append(out, cmds[i])
	}
	return out, nil
}
