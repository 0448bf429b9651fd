package deckedit

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vytor/studyflash/internal/models"
)

// maxIDAttempts bounds how often a generated id may collide with one already
// in the working deck before Apply gives up.
const maxIDAttempts = 16

// Interpreter applies decoded commands to a deck snapshot. It holds no deck
// state between calls and is safe for concurrent use if its id generator is.
type Interpreter struct {
	newID func() string
}

type Option func(*Interpreter)

// WithIDGenerator replaces the UUID generator used for cards added without
// an explicit id.
func WithIDGenerator(fn func() string) Option {
	return func(in *Interpreter) {
		in.newID = fn
	}
}

func NewInterpreter(opts ...Option) *Interpreter {
	in := &Interpreter{newID: uuid.NewString}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Apply runs cmds in order against a copy of snapshot and returns the
// resulting deck. The input snapshot is never modified.
//
// Adding a card whose id already exists overwrites it in place. Deleting an
// id that is not present is a no-op. Updating an id that is not present
// fails with *UnknownCardError and no partial result is returned.
func (in *Interpreter) Apply(snapshot models.DeckSnapshot, cmds []Command) (models.DeckSnapshot, error) {
	deck := newWorkingDeck(snapshot)

	for i, cmd := range cmds {
		var err error
		switch c := cmd.(type) {
		case AddCardCommand:
			err = in.add(deck, c.Card)
		case BulkAddCommand:
			for _, card := range c.Cards {
				if err = in.add(deck, card); err != nil {
					break
				}
			}
		case UpdateCardCommand:
			err = deck.update(c.Update)
		case BulkUpdateCommand:
			for _, u := range c.Updates {
				if err = deck.update(u); err != nil {
					break
				}
			}
		case DeleteCardCommand:
			deck.remove(c.ID)
		case BulkDeleteCommand:
			for _, id := range c.IDs {
				deck.remove(id)
			}
		default:
			err = fmt.Errorf("command %d: unsupported command type %T", i, cmd)
		}
		if err != nil {
			return models.DeckSnapshot{}, err
		}
	}

	return deck.snapshot(), nil
}

func (in *Interpreter) add(deck *workingDeck, card NewCard) error {
	id := card.ID
	if id == "" {
		for attempt := 0; ; attempt++ {
			if attempt == maxIDAttempts {
				return fmt.Errorf("id generator produced %d colliding ids", maxIDAttempts)
			}
			id = in.newID()
			if _, taken := deck.cards[id]; !taken && id != "" {
				break
			}
		}
	}
	deck.put(models.FlashCard{ID: id, Front: card.Front, Back: card.Back})
	return nil
}

// workingDeck is an insertion-ordered map of cards.
type workingDeck struct {
	order []string
	cards map[string]models.FlashCard
}

func newWorkingDeck(s models.DeckSnapshot) *workingDeck {
	d := &workingDeck{
		order: make([]string, 0, len(s.Cards)),
		cards: make(map[string]models.FlashCard, len(s.Cards)),
	}
	for _, c := range s.Cards {
		d.put(c)
	}
	return d
}

func (d *workingDeck) put(c models.FlashCard) {
	if _, ok := d.cards[c.ID]; !ok {
		d.order = append(d.order, c.ID)
	}
	d.cards[c.ID] = c
}

func (d *workingDeck) update(u CardUpdate) error {
	c, ok := d.cards[u.ID]
	if !ok {
		return &UnknownCardError{ID: u.ID}
	}
	if u.Front != nil {
		c.Front = *u.Front
	}
	if u.Back != nil {
		c.Back = *u.Back
	}
	d.cards[u.ID] = c
	return nil
}

func (d *workingDeck) remove(id string) {
	if _, ok := d.cards[id]; !ok {
		return
	}
	delete(d.cards, id)
	for i, existing := range d.order {
		if existing == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *workingDeck) snapshot() models.DeckSnapshot {
	cards := make([]models.FlashCard, 0, len(d.order))
	for _, id := range d.order {
		cards = append(cards, d.cards[id])
	}
	return models.DeckSnapshot{Cards: cards}
}
